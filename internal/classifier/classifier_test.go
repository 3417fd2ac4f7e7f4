package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

func sample(shoulderWidth, hipWidth float64) models.PoseSample {
	const center = 0.5
	point := func(x float64) models.LandmarkPoint {
		return models.LandmarkPoint{X: x, Y: 0.4, Visibility: 0.9}
	}
	return models.PoseSample{
		LeftShoulder:  point(center + shoulderWidth/2),
		RightShoulder: point(center - shoulderWidth/2),
		LeftHip:       point(center + hipWidth/2),
		RightHip:      point(center - hipWidth/2),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		shoulder float64
		hip      float64
		want     models.BodyType
	}{
		{"equal widths are rectangle", 0.30, 0.30, models.Rectangle},
		{"equal wider widths are rectangle", 0.35, 0.35, models.Rectangle},
		{"broad shoulders", 0.40, 0.20, models.InvertedTriangle},
		{"broad hips", 0.20, 0.40, models.Pear},
		{"small difference is rectangle", 0.32, 0.30, models.Rectangle},
		{"moderate shoulder lead is unknown", 0.40, 0.34, models.Unknown},
		{"moderate hip lead is unknown", 0.34, 0.40, models.Unknown},
		{"coincident landmarks fail closed", 0, 0, models.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(sample(tt.shoulder, tt.hip)))
		})
	}
}

func TestClassifyMeasurementsRuleOrder(t *testing.T) {
	// Both ratios above the threshold cannot come out of Measure, but the
	// rules still have to rank hourglass first.
	m := Measurements{ShoulderWidth: 0.4, HipWidth: 0.3, WaistWidth: 0.3, ShoulderWaistRatio: 1.33, HipWaistRatio: 1.2}
	assert.Equal(t, models.Hourglass, ClassifyMeasurements(m))

	// Inverted triangle wins over rectangle when both hold.
	m = Measurements{ShoulderWidth: 0.33, HipWidth: 0.30, WaistWidth: 0.2, ShoulderWaistRatio: 1.65, HipWaistRatio: 1.0}
	assert.Equal(t, models.InvertedTriangle, ClassifyMeasurements(m))

	m = Measurements{ShoulderWidth: 0.30, HipWidth: 0.33, WaistWidth: 0.2, ShoulderWaistRatio: 1.0, HipWaistRatio: 1.65}
	assert.Equal(t, models.Pear, ClassifyMeasurements(m))
}

func TestClassifyNeverReturnsApple(t *testing.T) {
	for s := 0.0; s <= 0.6; s += 0.02 {
		for h := 0.0; h <= 0.6; h += 0.02 {
			assert.NotEqual(t, models.Apple, Classify(sample(s, h)))
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	s := sample(0.42, 0.25)
	first := Classify(s)
	assert.Equal(t, first, Classify(s))
	assert.Equal(t, Measure(s), Measure(s))
}

func TestMeasure(t *testing.T) {
	m := Measure(sample(0.40, 0.20))
	assert.InDelta(t, 0.40, m.ShoulderWidth, 1e-9)
	assert.InDelta(t, 0.20, m.HipWidth, 1e-9)
	assert.InDelta(t, 0.30, m.WaistWidth, 1e-9)
	assert.InDelta(t, 1.333, m.ShoulderWaistRatio, 1e-3)
	assert.InDelta(t, 0.667, m.HipWaistRatio, 1e-3)

	zero := Measure(sample(0, 0))
	assert.Zero(t, zero.ShoulderWaistRatio)
	assert.Zero(t, zero.HipWaistRatio)
}

func TestConfident(t *testing.T) {
	base := sample(0.3, 0.3)
	assert.True(t, Confident(base))

	lower := func(mut func(*models.PoseSample)) models.PoseSample {
		s := base
		mut(&s)
		return s
	}

	tests := map[string]models.PoseSample{
		"left shoulder":  lower(func(s *models.PoseSample) { s.LeftShoulder.Visibility = 0.49 }),
		"right shoulder": lower(func(s *models.PoseSample) { s.RightShoulder.Visibility = 0.2 }),
		"left hip":       lower(func(s *models.PoseSample) { s.LeftHip.Visibility = 0.1 }),
		"right hip":      lower(func(s *models.PoseSample) { s.RightHip.Visibility = 0 }),
		"exactly half":   lower(func(s *models.PoseSample) { s.RightHip.Visibility = 0.5 }),
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			assert.False(t, Confident(s))
		})
	}
}
