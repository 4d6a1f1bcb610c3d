package backtest

import (
	"fmt"
	"math"
	"time"
)

// statEpsilon keeps Sharpe finite on zero-variance return series. The
// resulting value is degenerate (huge or zero depending on the mean) and
// should be read as "unreliable", not as a real risk-adjusted return.
const statEpsilon = 1e-12

const tradingDaysPerYear = 252

// Summary is the terminal, immutable performance report of one run.
type Summary struct {
	TotalReturn     float64 `json:"total_return"`
	CAGR            float64 `json:"cagr"`
	Sharpe          float64 `json:"sharpe"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	Alpha           float64 `json:"alpha"`
}

// Analyze computes the performance summary of a strategy value series
// against its buy-and-hold benchmark. span is the elapsed calendar time
// between the first and last bar (Series.Span). Requires at least two bars
// for any return-based metric.
func Analyze(values, benchmark []float64, span time.Duration) (Summary, error) {
	if len(values) < 2 {
		return Summary{}, fmt.Errorf("analyze: %w: need at least two bars, got %d", ErrInsufficientData, len(values))
	}
	if len(benchmark) != len(values) {
		return Summary{}, fmt.Errorf("analyze: series length mismatch: values=%d benchmark=%d",
			len(values), len(benchmark))
	}

	days := span.Hours() / 24

	totalReturn := values[len(values)-1]/values[0] - 1
	benchReturn := benchmark[len(benchmark)-1]/benchmark[0] - 1

	strategyCAGR := cagr(totalReturn, days)
	benchCAGR := cagr(benchReturn, days)

	return Summary{
		TotalReturn:     totalReturn,
		CAGR:            strategyCAGR,
		Sharpe:          sharpe(values),
		MaxDrawdown:     maxDrawdown(values),
		BenchmarkReturn: benchReturn,
		Alpha:           strategyCAGR - benchCAGR,
	}, nil
}

// cagr annualizes a total return over elapsed calendar days. Zero when no
// calendar time has elapsed (single-day series).
func cagr(totalReturn, days float64) float64 {
	if days <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 365/days) - 1
}

// sharpe is mean(dailyReturn)/stddev(dailyReturn)*sqrt(252) with an epsilon
// guard on the denominator. The first bar's return counts as 0.
func sharpe(values []float64) float64 {
	rets := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		rets[i] = values[i]/values[i-1] - 1
	}

	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	ss := 0.0
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(rets)-1))

	return mean / (std + statEpsilon) * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown is the worst decline from the running peak, always <= 0.
func maxDrawdown(values []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		dd := v/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
