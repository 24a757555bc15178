package audio

import "math"

const energyEps = 1e-12

// FrameEnergyDB splits x into consecutive non-overlapping frames of size
// samples and returns each frame's mean-square energy in dB. A trailing
// partial frame is kept.
func FrameEnergyDB(x []float64, size int) []float64 {
	if size <= 0 || len(x) == 0 {
		return nil
	}
	out := make([]float64, 0, (len(x)+size-1)/size)
	for lo := 0; lo < len(x); lo += size {
		hi := lo + size
		if hi > len(x) {
			hi = len(x)
		}
		out = append(out, 10*math.Log10(meanSquare(x[lo:hi])+energyEps))
	}
	return out
}

func meanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}
