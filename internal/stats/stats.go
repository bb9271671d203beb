package stats

import (
	"math"
	"sort"
	"time"
)

func AverageFloat64(items []float64) float64 {
	count := len(items)
	if count == 0 {
		return 0
	}
	sum := 0.0

	for _, v := range items {
		sum = sum + v
	}
	return sum / float64(count)
}

func MaxFloat64(items []float64) float64 {
	if len(items) == 0 {
		return 0
	}
	max := items[0]
	for _, v := range items {
		if v > max {
			max = v
		}
	}
	return max
}

func MinFloat64(items []float64) float64 {
	if len(items) == 0 {
		return 0
	}
	min := items[0]
	for _, v := range items {
		if v < min {
			min = v
		}
	}
	return min
}

// StandardDeviationFloat64
func StandardDeviationFloat64(items []float64, calculatedAvg ...float64) float64 {
	n := len(items)
	if n == 0 {
		return 0
	}
	var average float64
	if len(calculatedAvg) > 0 {
		average = calculatedAvg[0]
	} else {
		average = AverageFloat64(items)
	}
	vn := 0.0

	for _, v := range items {
		vn += math.Pow(v-average, 2)
	}

	return math.Sqrt(vn / float64(n))
}

// PercentileFloat64 uses nearest rank on a sorted copy. p is in [0, 100].
func PercentileFloat64(items []float64, p float64) float64 {
	if len(items) == 0 {
		return 0
	}
	sorted := make([]float64, len(items))
	copy(sorted, items)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

type Summary struct {
	Count  int
	Min    time.Duration
	Max    time.Duration
	Avg    time.Duration
	StdDev time.Duration
	P99    time.Duration
}

func Summarize(samples []time.Duration) Summary {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s)
	}
	avg := AverageFloat64(values)
	return Summary{
		Count:  len(samples),
		Min:    time.Duration(MinFloat64(values)),
		Max:    time.Duration(MaxFloat64(values)),
		Avg:    time.Duration(avg),
		StdDev: time.Duration(StandardDeviationFloat64(values, avg)),
		P99:    time.Duration(PercentileFloat64(values, 99)),
	}
}
