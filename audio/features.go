package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	NumMFCC = 13

	fftSize    = 512
	hopSize    = 160
	numMelBand = 40
)

// VoiceFeatures summarises the timbre of one speaker segment.
type VoiceFeatures struct {
	MFCCMean         [NumMFCC]float64
	SpectralCentroid float64 // Hz
	ZeroCrossingRate float64
	Energy           float64 // mean square
	Empty            bool    // no samples to measure
}

// Vector flattens the features for distance computations. The centroid is
// scaled down so it does not dominate the cepstral terms.
func (f VoiceFeatures) Vector() []float64 {
	v := make([]float64, 0, NumMFCC+3)
	v = append(v, f.MFCCMean[:]...)
	return append(v, f.SpectralCentroid/2000, f.ZeroCrossingRate, f.Energy)
}

// ExtractVoiceFeatures measures x, sampled at sampleRate. An empty slice
// yields zero features with Empty set.
func ExtractVoiceFeatures(x []float64, sampleRate int) VoiceFeatures {
	if len(x) == 0 || sampleRate <= 0 {
		return VoiceFeatures{Empty: true}
	}

	fb := melFilterBank(numMelBand, fftSize, sampleRate)
	fft := fourier.NewFFT(fftSize)
	window := hann(fftSize)
	frame := make([]float64, fftSize)
	power := make([]float64, fftSize/2+1)
	mel := make([]float64, numMelBand)
	var coeffs []complex128

	var (
		mfccSum   [NumMFCC]float64
		centroids []float64
		zcrs      []float64
		nFrames   int
	)
	for lo := 0; lo < len(x); lo += hopSize {
		for i := range frame {
			frame[i] = 0
			if lo+i < len(x) {
				frame[i] = x[lo+i] * window[i]
			}
		}
		zcrs = append(zcrs, zeroCrossingRate(x[lo:min(lo+fftSize, len(x))]))

		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = (re*re + im*im) / fftSize
		}

		if total := floats.Sum(power); total > 0 {
			var weighted float64
			for k, p := range power {
				weighted += p * binFreq(k, sampleRate)
			}
			centroids = append(centroids, weighted/total)
		} else {
			centroids = append(centroids, 0)
		}

		for m, filt := range fb {
			mel[m] = math.Log(floats.Dot(filt, power) + 1e-10)
		}
		c := dct2(mel, NumMFCC)
		floats.Add(mfccSum[:], c)
		nFrames++

		if lo+fftSize >= len(x) {
			break
		}
	}

	var out VoiceFeatures
	floats.Scale(1/float64(nFrames), mfccSum[:])
	out.MFCCMean = mfccSum
	out.SpectralCentroid = stat.Mean(centroids, nil)
	out.ZeroCrossingRate = stat.Mean(zcrs, nil)
	out.Energy = meanSquare(x)
	return out
}

// Distance is the Euclidean distance between two feature vectors divided by
// 10 and capped at 1. Mismatched or empty vectors are maximally distant.
func Distance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	return math.Min(floats.Distance(a, b, 2)/10, 1)
}

func zeroCrossingRate(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] >= 0) != (x[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(x)-1)
}

func binFreq(k, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / fftSize
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

// melFilterBank returns nBands triangular filters over the nfft/2+1 power
// spectrum bins, spanning 0 Hz to Nyquist.
func melFilterBank(nBands, nfft, sampleRate int) [][]float64 {
	nBins := nfft/2 + 1
	lo, hi := hzToMel(0), hzToMel(float64(sampleRate)/2)
	edges := make([]float64, nBands+2)
	for i := range edges {
		edges[i] = melToHz(lo + (hi-lo)*float64(i)/float64(nBands+1))
	}
	fb := make([][]float64, nBands)
	for m := 0; m < nBands; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		filt := make([]float64, nBins)
		for k := range filt {
			f := binFreq(k, sampleRate)
			switch {
			case f > left && f <= center:
				filt[k] = (f - left) / (center - left)
			case f > center && f < right:
				filt[k] = (right - f) / (right - center)
			}
		}
		fb[m] = filt
	}
	return fb
}

// dct2 returns the first n orthonormal DCT-II coefficients of x.
func dct2(x []float64, n int) []float64 {
	size := float64(len(x))
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi/size*(float64(i)+0.5)*float64(k))
		}
		scale := math.Sqrt(2 / size)
		if k == 0 {
			scale = math.Sqrt(1 / size)
		}
		out[k] = sum * scale
	}
	return out
}
