package datamodels

// AssetStatistics carries the mean-variance view of a set of assets: expected
// terminal prices and the variance/covariance matrix, both aligned with the
// Assets ordering. The matrix diagonal is variance, off-diagonal covariance.
type AssetStatistics struct {
	Assets         []Asset     `json:"assets"`
	ExpectedPrices []float64   `json:"exp_prices"`
	Variances      [][]float64 `json:"variances"`
}

func (s *AssetStatistics) Copy() AssetStatistics {
	assets := make([]Asset, len(s.Assets))
	copy(assets, s.Assets)
	prices := make([]float64, len(s.ExpectedPrices))
	copy(prices, s.ExpectedPrices)
	variances := make([][]float64, len(s.Variances))
	for i, row := range s.Variances {
		variances[i] = make([]float64, len(row))
		copy(variances[i], row)
	}
	return AssetStatistics{Assets: assets, ExpectedPrices: prices, Variances: variances}
}
