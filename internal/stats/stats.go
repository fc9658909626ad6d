// Package stats computes the derived metrics the dashboard shows next to
// raw quotes: percent changes, normalized series, annualized return and
// volatility, and return correlations.
package stats

import (
	"math"
	"time"

	"macrofeed/internal/source"
)

const (
	tradingDaysPerYear = 252
	daysPerYear        = 365.25
)

// PercentChange returns the percent change from first to last, or 0 when
// first is 0.
func PercentChange(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// Normalize rescales a series so its first point equals 100, which makes
// indices with very different levels comparable on one chart. A series
// starting at 0 is returned unchanged.
func Normalize(points []source.Point) []source.Point {
	if len(points) == 0 || points[0].Value == 0 {
		return points
	}
	base := points[0].Value
	out := make([]source.Point, len(points))
	for i, p := range points {
		out[i] = source.Point{Time: p.Time, Value: p.Value / base * 100}
	}
	return out
}

// TotalReturnPct returns the percent change from the first to the last
// point of the series.
func TotalReturnPct(points []source.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	return PercentChange(points[0].Value, points[len(points)-1].Value)
}

// AnnualizedReturnPct geometrically annualizes the series' total return
// using the calendar span between its first and last points.
func AnnualizedReturnPct(points []source.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	first, last := points[0], points[len(points)-1]
	if first.Value <= 0 || last.Value <= 0 {
		return 0
	}
	years := last.Time.Sub(first.Time).Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}
	return (math.Pow(last.Value/first.Value, 1/years) - 1) * 100
}

// DailyReturns returns the period-over-period fractional returns of the
// series. Points with a zero predecessor are skipped.
func DailyReturns(points []source.Point) []float64 {
	if len(points) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, points[i].Value/prev-1)
	}
	return returns
}

// AnnualizedVolatilityPct scales the standard deviation of daily returns
// by sqrt(252) and expresses it as a percentage.
func AnnualizedVolatilityPct(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return stdDev(dailyReturns) * math.Sqrt(tradingDaysPerYear) * 100
}

// Correlation returns the Pearson correlation of two equal-length return
// slices, or 0 when it is undefined.
func Correlation(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	meanA, meanB := mean(a), mean(b)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// YoYChangePct compares the last point of a series with the observation
// closest to one year earlier. It reports false when the series does not
// span a full year.
func YoYChangePct(points []source.Point) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	last := points[len(points)-1]
	target := last.Time.AddDate(-1, 0, 0)

	best := -1
	bestDiff := time.Duration(math.MaxInt64)
	for i, p := range points[:len(points)-1] {
		diff := p.Time.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	// Accept only a comparison point within ~45 days of one year back;
	// anything further off would not be a year-over-year reading.
	if best < 0 || bestDiff > 45*24*time.Hour || points[best].Value == 0 {
		return 0, false
	}
	return PercentChange(points[best].Value, last.Value), true
}

// Tail returns the last n points of a series.
func Tail(points []source.Point, n int) []source.Point {
	if n <= 0 || len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	// Sample standard deviation, matching how the source scripts compute it.
	return math.Sqrt(sum / float64(len(values)-1))
}
