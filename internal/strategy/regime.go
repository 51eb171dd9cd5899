package strategy

// Regimes computes the trend regime for every index of the close series:
// 1 when the fast SMA is strictly above the slow SMA, 0 otherwise.
// Indices before both averages have a full window are 0 (flat).
func Regimes(closes []float64, fast, slow int) []int {
	fastMA := sma(closes, fast)
	slowMA := sma(closes, slow)

	out := make([]int, len(closes))
	warm := fast
	if slow > warm {
		warm = slow
	}
	for i := warm - 1; i < len(closes); i++ {
		if fastMA[i] > slowMA[i] {
			out[i] = 1
		}
	}
	return out
}

// sma returns the simple moving average with a full-window warm-up;
// indices before period-1 are left zero and must not be read.
func sma(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		out[i] = mean(values[i-period+1 : i+1])
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
