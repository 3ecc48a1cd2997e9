package assetstats

import (
	"encoding/json"
	"os"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// FileProvider reads the asset universe from a JSON file of the shape
// {"assets": [...], "exp_prices": [...], "variances": [[...]]}. The file is
// read once at construction; simulations never mutate it.
type FileProvider struct {
	universe datamodels.AssetStatistics
}

func NewFileProvider(filePath string) (*FileProvider, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.WrapE(errors.ErrBadData, err)
	}

	var universe datamodels.AssetStatistics
	if err := json.Unmarshal(raw, &universe); err != nil {
		return nil, errors.WrapE(errors.ErrBadData, err)
	}
	if err := validateStatistics(&universe); err != nil {
		return nil, err
	}
	return &FileProvider{universe: universe}, nil
}

func (p *FileProvider) Get(tickers []datamodels.Asset) (datamodels.AssetStatistics, error) {
	return subsetStatistics(&p.universe, tickers)
}
