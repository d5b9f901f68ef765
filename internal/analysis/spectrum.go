package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Detrend returns data with its mean removed.
func Detrend(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

// PowerSpectrum returns |X_k|^2/n for k = 0..n/2. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	coeffs := fft.FFTReal(data)
	ps := make([]float64, n/2+1)
	for k := range ps {
		a := cmplx.Abs(coeffs[k])
		ps[k] = a * a / float64(n)
	}
	return ps
}

// DominantFrequency returns the frequency and power of the strongest bin
// above DC, for data sampled at sampleRate. The mean is removed first.
func DominantFrequency(data []float64, sampleRate float64) (float64, float64) {
	if len(data) < 2 {
		return 0, 0
	}
	ps := PowerSpectrum(Detrend(data))
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) * sampleRate / float64(len(data)), ps[best]
}
