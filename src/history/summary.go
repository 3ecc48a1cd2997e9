package history

import (
	"github.com/montanaflynn/stats"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// RunSummary condenses one agent's sample window into headline numbers.
type RunSummary struct {
	AgentID               string  `json:"agent_id"`
	SampleCount           int     `json:"sample_count"`
	TradeCount            int     `json:"trade_count"`
	FinalHoldingsValue    float64 `json:"final_holdings_value"`
	MeanHoldingsValue     float64 `json:"mean_holdings_value"`
	HoldingsValueStdDev   float64 `json:"holdings_value_std_dev"`
	MaxDrawdown           float64 `json:"max_drawdown"`
	MeanExpectedReturn    float64 `json:"mean_expected_return"`
	MeanPortfolioVariance float64 `json:"mean_portfolio_variance"`
}

func Summarize(samples []datamodels.HistorySample, tradeCount int) (RunSummary, error) {
	if len(samples) == 0 {
		return RunSummary{}, errors.Wrap(errors.ErrBadData, "no history samples to summarize")
	}

	holdings := make([]float64, len(samples))
	expectedReturns := make([]float64, len(samples))
	variances := make([]float64, len(samples))
	for i, sample := range samples {
		holdings[i] = sample.HoldingsValue
		expectedReturns[i] = sample.ExpectedReturn
		variances[i] = sample.PortfolioVariance
	}

	meanHoldings, err := stats.Mean(holdings)
	if err != nil {
		return RunSummary{}, err
	}
	stdDevHoldings, err := stats.StandardDeviation(holdings)
	if err != nil {
		return RunSummary{}, err
	}
	meanReturn, err := stats.Mean(expectedReturns)
	if err != nil {
		return RunSummary{}, err
	}
	meanVariance, err := stats.Mean(variances)
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		AgentID:               samples[0].AgentID,
		SampleCount:           len(samples),
		TradeCount:            tradeCount,
		FinalHoldingsValue:    holdings[len(holdings)-1],
		MeanHoldingsValue:     meanHoldings,
		HoldingsValueStdDev:   stdDevHoldings,
		MaxDrawdown:           maxDrawdown(holdings),
		MeanExpectedReturn:    meanReturn,
		MeanPortfolioVariance: meanVariance,
	}, nil
}

// maxDrawdown is the largest peak-to-trough fall as a fraction of the peak.
func maxDrawdown(values []float64) float64 {
	peak := values[0]
	drawdown := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > drawdown {
				drawdown = dd
			}
		}
	}
	return drawdown
}
