package optimizer

/*
Closed-form tangency portfolio math. Everything here is a pure function of the
asset statistics and the agent's believed prices; no state is retained. Errors
follow the shared taxonomy: malformed inputs are ErrBadData, a non-invertible
risk matrix is ErrSingularRisk, and a negative quadratic form is
ErrStateInvariant because it means the risk matrix was built wrong upstream.
*/

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

const varianceTolerance = 1e-9

// ExpectedReturns computes, per watched asset, the expected terminal price
// divided by the current believed price.
func ExpectedReturns(stats *datamodels.AssetStatistics, currentPrices []float64) ([]float64, error) {
	n := len(stats.Assets)
	if len(currentPrices) != n {
		return nil, errors.Wrapf(errors.ErrBadData, "have %d prices for %d assets", len(currentPrices), n)
	}
	if len(stats.ExpectedPrices) != n {
		return nil, errors.Wrapf(errors.ErrBadData, "have %d expected prices for %d assets", len(stats.ExpectedPrices), n)
	}

	returns := make([]float64, n)
	for i := 0; i < n; i++ {
		if currentPrices[i] <= 0 {
			return nil, errors.Wrapf(errors.ErrBadData, "non-positive current price %f for %s", currentPrices[i], stats.Assets[i])
		}
		returns[i] = stats.ExpectedPrices[i] / currentPrices[i]
	}
	return returns, nil
}

// RiskMatrix builds the symmetric covariance matrix over the watched assets,
// row/column order matching stats.Assets.
func RiskMatrix(stats *datamodels.AssetStatistics) (*mat.SymDense, error) {
	n := len(stats.Assets)
	if len(stats.Variances) != n {
		return nil, errors.Wrapf(errors.ErrBadData, "have %d variance rows for %d assets", len(stats.Variances), n)
	}
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(stats.Variances[i]) != n {
			return nil, errors.Wrapf(errors.ErrBadData, "variance row %d has %d entries, want %d", i, len(stats.Variances[i]), n)
		}
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, stats.Variances[i][j])
		}
	}
	return sigma, nil
}

// OptimalWeights solves the unconstrained tangency problem w ∝ Σ⁻¹(μ − r·1)
// and normalizes the result to sum to one. Individual weights may be negative
// or exceed one; the caller decides what to do with leverage.
func OptimalWeights(stats *datamodels.AssetStatistics, riskFreeRate float64, currentPrices []float64) ([]float64, error) {
	expReturns, err := ExpectedReturns(stats, currentPrices)
	if err != nil {
		return nil, err
	}
	sigma, err := RiskMatrix(stats)
	if err != nil {
		return nil, err
	}

	n := len(expReturns)
	excess := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		excess.SetVec(i, expReturns[i]-riskFreeRate)
	}

	var solved mat.VecDense
	if err := solved.SolveVec(sigma, excess); err != nil {
		return nil, errors.WrapE(errors.ErrSingularRisk, err)
	}

	denom := 0.0
	for i := 0; i < n; i++ {
		denom += solved.AtVec(i)
	}
	if math.Abs(denom) < 1e-12 {
		return nil, errors.Wrap(errors.ErrSingularRisk, "tangency normalization denominator is zero")
	}

	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = solved.AtVec(i) / denom
	}
	return weights, nil
}

// PortfolioExpectedReturn is the dot product of the weights with the per-asset
// expected returns.
func PortfolioExpectedReturn(weights []float64, stats *datamodels.AssetStatistics, currentPrices []float64) (float64, error) {
	expReturns, err := ExpectedReturns(stats, currentPrices)
	if err != nil {
		return 0, err
	}
	if len(weights) != len(expReturns) {
		return 0, errors.Wrapf(errors.ErrBadData, "have %d weights for %d assets", len(weights), len(expReturns))
	}

	total := 0.0
	for i, w := range weights {
		total += w * expReturns[i]
	}
	return total, nil
}

// PortfolioVariance computes the quadratic form wᵀΣw. A result below zero by
// more than the floating tolerance means the risk matrix was mis-built and is
// reported as an invariant violation, never clamped away.
func PortfolioVariance(weights []float64, stats *datamodels.AssetStatistics) (float64, error) {
	sigma, err := RiskMatrix(stats)
	if err != nil {
		return 0, err
	}
	n := len(weights)
	if n != len(stats.Assets) {
		return 0, errors.Wrapf(errors.ErrBadData, "have %d weights for %d assets", n, len(stats.Assets))
	}

	variance := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * sigma.At(i, j) * weights[j]
		}
	}
	if variance < -varianceTolerance {
		return 0, errors.Wrapf(errors.ErrStateInvariant, "negative portfolio variance %g", variance)
	}
	if variance < 0 {
		variance = 0
	}
	return variance, nil
}

// OptimalRiskyFraction is the share of total wealth that belongs in the
// tangency portfolio: (E[r] − rf) / (σ²·γ). The result is unbounded — above
// one means leverage, below zero means shorting the whole risky portfolio —
// and the rebalancing engine, not this function, decides whether to clamp.
func OptimalRiskyFraction(portfolioReturn, riskFreeRate, portfolioVariance, riskAversion float64) (float64, error) {
	denom := portfolioVariance * riskAversion
	if denom == 0 {
		return 0, errors.Wrap(errors.ErrSingularRisk, "degenerate risk: zero variance times aversion")
	}
	return (portfolioReturn - riskFreeRate) / denom, nil
}
