// Package classifier maps shoulder and hip landmarks to a body shape.
package classifier

import (
	"math"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

const (
	// VisibilityThreshold is the minimum confidence, exclusive, each of the
	// four landmarks needs before a sample may be classified.
	VisibilityThreshold = 0.5

	// RatioThreshold marks a dimension as clearly wider than the waist.
	RatioThreshold = 1.1

	// BalanceTolerance is the largest shoulder/hip difference still treated
	// as a straight silhouette.
	BalanceTolerance = 0.05
)

// Measurements are the intermediate values the decision rules run on.
type Measurements struct {
	ShoulderWidth      float64 `json:"shoulder_width"`
	HipWidth           float64 `json:"hip_width"`
	WaistWidth         float64 `json:"waist_width"`
	ShoulderWaistRatio float64 `json:"shoulder_waist_ratio"`
	HipWaistRatio      float64 `json:"hip_waist_ratio"`
}

// Confident reports whether every landmark in the sample is visible enough to
// classify. Callers must check it before calling Classify.
func Confident(s models.PoseSample) bool {
	for _, p := range []models.LandmarkPoint{s.LeftShoulder, s.RightShoulder, s.LeftHip, s.RightHip} {
		if !(p.Visibility > VisibilityThreshold) {
			return false
		}
	}
	return true
}

// Measure derives widths and ratios from the sample. The waist is not a
// landmark, so it is approximated as the mean of shoulder and hip widths.
// Ratios are zero when that approximation is zero.
func Measure(s models.PoseSample) Measurements {
	m := Measurements{
		ShoulderWidth: math.Abs(s.LeftShoulder.X - s.RightShoulder.X),
		HipWidth:      math.Abs(s.LeftHip.X - s.RightHip.X),
	}
	m.WaistWidth = (m.ShoulderWidth + m.HipWidth) / 2
	if m.WaistWidth > 0 {
		m.ShoulderWaistRatio = m.ShoulderWidth / m.WaistWidth
		m.HipWaistRatio = m.HipWidth / m.WaistWidth
	}
	return m
}

// Classify returns the body shape for a sample. Rules are evaluated in order
// and the first match wins. Apple is never returned here even though the
// catalog has an entry for it.
func Classify(s models.PoseSample) models.BodyType {
	return ClassifyMeasurements(Measure(s))
}

func ClassifyMeasurements(m Measurements) models.BodyType {
	if !(m.WaistWidth > 0) {
		return models.Unknown
	}

	switch {
	case m.ShoulderWaistRatio > RatioThreshold && m.HipWaistRatio > RatioThreshold:
		return models.Hourglass
	case m.ShoulderWidth > m.HipWidth && m.ShoulderWaistRatio > RatioThreshold:
		return models.InvertedTriangle
	case m.HipWidth > m.ShoulderWidth && m.HipWaistRatio > RatioThreshold:
		return models.Pear
	case math.Abs(m.ShoulderWidth-m.HipWidth) < BalanceTolerance:
		return models.Rectangle
	default:
		return models.Unknown
	}
}
