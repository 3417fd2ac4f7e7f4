package estimator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/body-shape-agent/internal/gallery"
	"github.com/BerylCAtieno/body-shape-agent/internal/landmarks"
	"github.com/BerylCAtieno/body-shape-agent/internal/metrics"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
	"github.com/BerylCAtieno/body-shape-agent/internal/routine"
)

type fakeDetector struct {
	set landmarks.Set
	err error
}

func (f fakeDetector) Detect(context.Context, []byte) (landmarks.Set, error) {
	return f.set, f.err
}

type fakeText struct {
	reply string
	err   error
	delay time.Duration
}

func (f fakeText) GenerateText(ctx context.Context, _ string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func pose(lsx, rsx, lhx, rhx, vis float64) landmarks.Set {
	return landmarks.Set{
		landmarks.LeftShoulder:  {X: lsx, Y: 0.3, Visibility: vis},
		landmarks.RightShoulder: {X: rsx, Y: 0.3, Visibility: vis},
		landmarks.LeftHip:       {X: lhx, Y: 0.6, Visibility: vis},
		landmarks.RightHip:      {X: rhx, Y: 0.6, Visibility: vis},
		landmarks.Nose:          {X: 0.5, Y: 0.1, Visibility: 0.2},
	}
}

// pearPose has shoulder width 0.2 and hip width 0.4.
func pearPose() landmarks.Set { return pose(0.6, 0.4, 0.7, 0.3, 0.95) }

func routineJSON() string {
	var b strings.Builder
	b.WriteString("{")
	for d := 1; d <= models.RoutineDays; d++ {
		if d > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `%q:{`, models.DayLabel(d))
		for i, f := range models.DailyPlanFields {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `%q:"%s for day %d"`, f, f, d)
		}
		b.WriteString("}")
	}
	b.WriteString("}")
	return b.String()
}

func galleryFS(perCategory int) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, cat := range models.Categories {
		for i := 0; i < perCategory; i++ {
			name := fmt.Sprintf("Pear/Female/%s/%03d.jpg", cat, i)
			fsys[name] = &fstest.MapFile{Data: []byte("img")}
		}
	}
	return fsys
}

func newService(det landmarks.Detector, fsys fstest.MapFS, text routine.TextGenerator, reg *metrics.Registry) *Service {
	var gen *routine.Generator
	if text != nil {
		gen = routine.NewGenerator(text, time.Second, reg)
	}
	return NewService(Config{
		Detector: det,
		Sampler:  gallery.NewSampler(gallery.NewFSStore(fsys), rand.New(rand.NewPCG(7, 11))),
		Routines: gen,
		Metrics:  reg,
		ImageURL: func(r gallery.ImageRef) string { return "/gallery/" + string(r) },
	})
}

func TestEvaluateCompleted(t *testing.T) {
	reg := metrics.NewRegistry()
	svc := newService(fakeDetector{set: pearPose()}, galleryFS(5), fakeText{reply: "```json\n" + routineJSON() + "\n```"}, reg)

	out, err := svc.Evaluate(context.Background(), []byte("img"), models.Female, Options{WithRoutine: true})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, out.Status)
	assert.NoError(t, out.Err())
	assert.Equal(t, models.Pear, out.BodyType)
	require.NotNil(t, out.Measurements)
	assert.InDelta(t, 0.3, out.Measurements.WaistWidth, 1e-9)

	b := out.Bundle
	require.NotNil(t, b)
	assert.Equal(t, models.Pear, b.BodyType)
	assert.Equal(t, models.Female, b.Gender)
	assert.NotEmpty(t, b.Description)
	assert.NotEmpty(t, b.Exercise.Tips)
	assert.NotEmpty(t, b.Posture)
	assert.Contains(t, b.Outfit.Tips, "A-line")
	assert.Len(t, b.Exercise.Images, 2)
	assert.Len(t, b.Yoga.Images, 2)
	assert.Len(t, b.Outfit.Images, 2)
	for _, img := range b.Outfit.Images {
		assert.True(t, strings.HasPrefix(img, "/gallery/Pear/Female/Outfits/"), img)
	}
	assert.Len(t, b.Routine.Days, models.RoutineDays)
	assert.Empty(t, b.Warnings)

	assert.Equal(t, int64(1), reg.Value("evaluations_total", map[string]string{"status": "completed", "body_type": "Pear"}))
}

func TestEvaluateTerminalOutcomes(t *testing.T) {
	missingHip := pearPose()
	delete(missingHip, landmarks.RightHip)

	tests := []struct {
		name    string
		det     fakeDetector
		status  Status
		wantErr error
		message string
	}{
		{"no body", fakeDetector{err: landmarks.ErrNoDetection}, StatusNotDetected, ErrNoBodyDetected, MessageNotDetected},
		{"missing landmark", fakeDetector{set: missingHip}, StatusNotDetected, ErrNoBodyDetected, MessageNotDetected},
		{"low visibility", fakeDetector{set: pose(0.6, 0.4, 0.7, 0.3, 0.5)}, StatusInconclusive, ErrLowConfidence, MessageInconclusive},
		{"unknown type", fakeDetector{set: pose(0.8, 0.2, 0.77, 0.23, 0.9)}, StatusNoSuggestions, ErrCatalogMiss, MessageNoSuggestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := metrics.NewRegistry()
			svc := newService(tt.det, galleryFS(5), nil, reg)

			out, err := svc.Evaluate(context.Background(), []byte("img"), models.Male, Options{WithRoutine: true})
			require.NoError(t, err)
			assert.Equal(t, tt.status, out.Status)
			assert.ErrorIs(t, out.Err(), tt.wantErr)
			assert.Equal(t, tt.message, out.Message)
			assert.Nil(t, out.Bundle)
			assert.Equal(t, int64(1), reg.Value("evaluations_total", map[string]string{
				"status":    string(tt.status),
				"body_type": out.BodyType.String(),
			}))
		})
	}
}

func TestEvaluateLowConfidenceSkipsClassification(t *testing.T) {
	set := pearPose()
	p := set[landmarks.LeftHip]
	p.Visibility = 0.2
	set[landmarks.LeftHip] = p

	out, err := newService(fakeDetector{set: set}, nil, nil, nil).Evaluate(context.Background(), []byte("img"), models.Female, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusInconclusive, out.Status)
	assert.Equal(t, models.Unknown, out.BodyType)
	assert.Nil(t, out.Measurements)
}

func TestEvaluateDetectorFailure(t *testing.T) {
	svc := newService(fakeDetector{err: errors.New("connection refused")}, nil, nil, nil)
	_, err := svc.Evaluate(context.Background(), []byte("img"), models.Female, Options{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoBodyDetected)
}

func TestRecommendDegradesGracefully(t *testing.T) {
	fsys := galleryFS(5)
	// Leave Yoga short and remove Outfits entirely.
	for name := range fsys {
		if strings.Contains(name, "/Outfits/") || strings.HasSuffix(name, "Yoga/001.jpg") ||
			strings.HasSuffix(name, "Yoga/002.jpg") || strings.HasSuffix(name, "Yoga/003.jpg") ||
			strings.HasSuffix(name, "Yoga/004.jpg") {
			delete(fsys, name)
		}
	}
	reg := metrics.NewRegistry()
	svc := newService(nil, fsys, fakeText{err: errors.New("quota exceeded")}, reg)

	b, err := svc.Recommend(context.Background(), models.Pear, models.Female, Options{WithRoutine: true})
	require.NoError(t, err)
	assert.Len(t, b.Exercise.Images, 2)
	assert.Empty(t, b.Yoga.Images)
	assert.NotNil(t, b.Yoga.Images)
	assert.NotEmpty(t, b.Yoga.Tips)
	assert.Empty(t, b.Outfit.Images)
	assert.NotEmpty(t, b.Outfit.Tips)
	assert.True(t, b.Routine.IsEmpty())

	assert.Contains(t, b.Warnings, "❌ Folder not found: Pear/Female/Outfits")
	assert.Contains(t, b.Warnings, "⚠️ Not enough images in: Pear/Female/Yoga")
	assert.Contains(t, b.Warnings, "Weekly routine could not be generated right now.")
	assert.Equal(t, int64(1), reg.Value("gallery_misses_total", map[string]string{"reason": "unavailable", "category": "Outfits"}))
	assert.Equal(t, int64(1), reg.Value("gallery_misses_total", map[string]string{"reason": "insufficient", "category": "Yoga"}))
}

func TestRecommendRoutineDisabled(t *testing.T) {
	svc := newService(nil, galleryFS(2), nil, nil)

	b, err := svc.Recommend(context.Background(), models.Pear, models.Female, Options{WithRoutine: true})
	require.NoError(t, err)
	assert.True(t, b.Routine.IsEmpty())
	assert.Equal(t, []string{"Weekly routine generation is not configured."}, b.Warnings)

	b, err = svc.Recommend(context.Background(), models.Pear, models.Female, Options{})
	require.NoError(t, err)
	assert.Empty(t, b.Warnings)
}

func TestRecommendSlowRoutineKeepsBundle(t *testing.T) {
	text := fakeText{reply: routineJSON(), delay: time.Minute}
	svc := NewService(Config{
		Sampler:  gallery.NewSampler(gallery.NewFSStore(galleryFS(3)), nil),
		Routines: routine.NewGenerator(text, 30*time.Millisecond, nil),
	})

	start := time.Now()
	b, err := svc.Recommend(context.Background(), models.Pear, models.Female, Options{WithRoutine: true})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, b.Routine.IsEmpty())
	assert.Len(t, b.Exercise.Images, 2)
	assert.NotEmpty(t, b.Description)
}

func TestRecommendImageCountOverride(t *testing.T) {
	svc := newService(nil, galleryFS(5), nil, nil)
	b, err := svc.Recommend(context.Background(), models.Pear, models.Female, Options{ImagesPerCategory: 4})
	require.NoError(t, err)
	assert.Len(t, b.Exercise.Images, 4)
}

func TestRecommendCatalogMiss(t *testing.T) {
	svc := newService(nil, galleryFS(2), nil, nil)
	_, err := svc.Recommend(context.Background(), models.Unknown, models.Female, Options{})
	assert.ErrorIs(t, err, ErrCatalogMiss)
}

func TestRecommendWithoutSampler(t *testing.T) {
	svc := NewService(Config{})
	b, err := svc.Recommend(context.Background(), models.Apple, models.Male, Options{})
	require.NoError(t, err)
	assert.Equal(t, models.Apple, b.BodyType)
	assert.Empty(t, b.Exercise.Images)
	assert.NotEmpty(t, b.Outfit.Tips)
}

func TestClassifySample(t *testing.T) {
	set := pose(0.7, 0.3, 0.6, 0.4, 0.9)
	sample, err := set.PoseSample()
	require.NoError(t, err)

	d := ClassifySample(sample)
	assert.Equal(t, StatusCompleted, d.Status)
	assert.Equal(t, models.InvertedTriangle, d.BodyType)
	assert.Empty(t, d.Message)
}
