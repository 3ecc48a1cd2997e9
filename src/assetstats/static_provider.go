package assetstats

import (
	"mvagent/src/datamodels"
)

// StaticProvider serves a fixed in-memory universe. Used by tests and by
// simulations that construct scenarios programmatically.
type StaticProvider struct {
	universe datamodels.AssetStatistics
}

func NewStaticProvider(universe datamodels.AssetStatistics) (*StaticProvider, error) {
	if err := validateStatistics(&universe); err != nil {
		return nil, err
	}
	return &StaticProvider{universe: universe.Copy()}, nil
}

func (p *StaticProvider) Get(tickers []datamodels.Asset) (datamodels.AssetStatistics, error) {
	return subsetStatistics(&p.universe, tickers)
}
