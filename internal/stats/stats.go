// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

const charsPerWord = 5.0

// Sample is the raw input to the policy formulas.
type Sample struct {
	InputLength       int
	InputWords        int
	Errors            int
	TypedWords        int
	CorrectWords      int
	TotalKeystrokes   int
	CorrectKeystrokes int
	Elapsed           time.Duration
}

// Rates are the policy-dependent metric values, already rounded.
type Rates struct {
	WPM       int
	NetWPM    int
	CPM       int
	Accuracy  int
	ErrorRate int
}

// Compute evaluates the formula set of policy over the sample.
func Compute(policy model.CalculationPolicy, s Sample) Rates {
	rates := Rates{Accuracy: Round(Accuracy(policy, s))}
	minutes := s.Elapsed.Minutes()
	if minutes <= 0 {
		return rates
	}
	length := float64(s.InputLength)
	var wpm, net float64
	switch policy {
	case model.PolicyTraditional:
		wpm = (length / charsPerWord) / minutes
		net = math.Max(0, wpm-float64(s.Errors)/minutes)
	case model.PolicyActual:
		wpm = float64(s.InputWords) / minutes
		net = math.Max(0, wpm-float64(s.TypedWords-s.CorrectWords)/minutes)
	default:
		wpm = (length / charsPerWord) / minutes
		net = math.Max(0, (length/charsPerWord-float64(s.Errors))/minutes)
	}
	rates.WPM = Round(wpm)
	rates.NetWPM = Round(net)
	rates.CPM = Round(length / minutes)
	rates.ErrorRate = Round(float64(s.Errors) / minutes)
	return rates
}

// Accuracy returns the unrounded accuracy percentage for policy.
func Accuracy(policy model.CalculationPolicy, s Sample) float64 {
	switch policy {
	case model.PolicyTraditional:
		if s.InputLength == 0 {
			return 100
		}
		return math.Max(0, 100-float64(s.Errors)/float64(s.InputLength)*100)
	case model.PolicyActual:
		if s.TypedWords == 0 {
			return 100
		}
		return 100 * float64(s.CorrectWords) / float64(s.TypedWords)
	default:
		if s.TotalKeystrokes == 0 {
			return 100
		}
		return 100 * float64(s.CorrectKeystrokes) / float64(s.TotalKeystrokes)
	}
}

// Round rounds half away from zero to the nearest integer.
func Round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}
