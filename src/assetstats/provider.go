package assetstats

import (
	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// Provider supplies mean-variance statistics for a requested set of tickers.
// Implementations are read-only; the returned statistics are ordered exactly
// as the requested tickers and the variance matrix is the corresponding
// sub-matrix of the full universe matrix.
type Provider interface {
	Get(tickers []datamodels.Asset) (datamodels.AssetStatistics, error)
}

func subsetStatistics(universe *datamodels.AssetStatistics, tickers []datamodels.Asset) (datamodels.AssetStatistics, error) {
	indices := make([]int, 0, len(tickers))
	for _, ticker := range tickers {
		found := -1
		for i, asset := range universe.Assets {
			if asset == ticker {
				found = i
				break
			}
		}
		if found < 0 {
			return datamodels.AssetStatistics{}, errors.Wrapf(errors.ErrBadData, "no statistics for ticker %s", ticker)
		}
		indices = append(indices, found)
	}

	out := datamodels.AssetStatistics{
		Assets:         make([]datamodels.Asset, len(tickers)),
		ExpectedPrices: make([]float64, len(tickers)),
		Variances:      make([][]float64, len(tickers)),
	}
	copy(out.Assets, tickers)
	for i, idx := range indices {
		out.ExpectedPrices[i] = universe.ExpectedPrices[idx]
		row := make([]float64, len(tickers))
		for j, jdx := range indices {
			row[j] = universe.Variances[idx][jdx]
		}
		out.Variances[i] = row
	}
	return out, nil
}

func validateStatistics(stats *datamodels.AssetStatistics) error {
	n := len(stats.Assets)
	if len(stats.ExpectedPrices) != n {
		return errors.Wrapf(errors.ErrBadData, "expected %d prices, got %d", n, len(stats.ExpectedPrices))
	}
	if len(stats.Variances) != n {
		return errors.Wrapf(errors.ErrBadData, "expected %d variance rows, got %d", n, len(stats.Variances))
	}
	for i, row := range stats.Variances {
		if len(row) != n {
			return errors.Wrapf(errors.ErrBadData, "variance row %d has %d entries, want %d", i, len(row), n)
		}
	}
	const symmetryTolerance = 1e-9
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			diff := stats.Variances[i][j] - stats.Variances[j][i]
			if diff > symmetryTolerance || diff < -symmetryTolerance {
				return errors.Wrapf(errors.ErrBadData, "variance matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return nil
}
