package calculator

import "BitcoinAdvisor/internal/model"

// SMASeries returns the trailing simple moving average for every index.
// The first window-1 values are undefined.
func SMASeries(prices []float64, window int) []model.Value {
	out := make([]model.Value, len(prices))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(prices); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += prices[j]
		}
		out[i] = model.Defined(sum / float64(window))
	}
	return out
}
