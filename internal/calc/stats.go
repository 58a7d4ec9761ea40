// Link quality arithmetic shared by metrics and exporters
package calc

import "slices"

type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float64
}

// Mean of values after dropping trimPercent of the sorted values from each end.
func TrimmedMean[T Number](values []T, trimPercent float64) (mean float64) {
	if trimPercent < 0 {
		trimPercent = 0
	}

	n := len(values)
	if n == 0 {
		return
	}

	nums := slices.Clone(values)
	slices.Sort(nums)

	// How many to trim from each end
	trimCount := int(float64(n) * trimPercent)
	if trimCount*2 >= n {
		trimCount = (n - 1) / 2
	}

	start := trimCount
	end := n - trimCount

	var sum float64
	for _, v := range nums[start:end] {
		sum += float64(v)
	}

	mean = sum / float64(end-start)
	return
}

// Signal to noise ratio in dB
func SNR(rssi, noiseFloor int8) (snr int) {
	snr = int(rssi) - int(noiseFloor)
	return
}

// Share of packets lost out of those sent, 0 when nothing was expected
func LossRatio(lost, received uint64) (ratio float64) {
	expected := lost + received
	if expected == 0 {
		return
	}
	ratio = float64(lost) / float64(expected)
	return
}
