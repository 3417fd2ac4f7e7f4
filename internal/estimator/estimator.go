// Package estimator runs the body-shape workflow: landmark detection,
// classification, catalog lookup, gallery sampling and the optional routine.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/catalog"
	"github.com/BerylCAtieno/body-shape-agent/internal/classifier"
	"github.com/BerylCAtieno/body-shape-agent/internal/gallery"
	"github.com/BerylCAtieno/body-shape-agent/internal/landmarks"
	"github.com/BerylCAtieno/body-shape-agent/internal/metrics"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
	"github.com/BerylCAtieno/body-shape-agent/internal/routine"
)

var (
	ErrNoBodyDetected = errors.New("no body detected")
	ErrLowConfidence  = errors.New("body not clearly detected")
	ErrCatalogMiss    = errors.New("no detailed suggestions available")
)

// User-facing messages for the terminal outcomes.
const (
	MessageNotDetected   = "😕 No body detected. Please upload a full, front-facing image with good lighting."
	MessageInconclusive  = "🙈 Body not clearly detected. Please upload a clearer, front-facing image showing your upper body."
	MessageNoSuggestions = "❗ No detailed suggestions available for detected body type."
)

type Status string

const (
	StatusNotDetected   Status = "not_detected"
	StatusInconclusive  Status = "inconclusive"
	StatusNoSuggestions Status = "no_suggestions"
	StatusCompleted     Status = "completed"
)

// Detection is the result of the first half of the workflow.
type Detection struct {
	Status       Status                  `json:"status"`
	BodyType     models.BodyType         `json:"body_type"`
	Measurements *classifier.Measurements `json:"measurements,omitempty"`
	Sample       *models.PoseSample       `json:"landmarks,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

// Outcome is what Evaluate hands to the presentation layer. Bundle is set only
// when Status is StatusCompleted.
type Outcome struct {
	Detection
	Bundle *models.ResultBundle `json:"result,omitempty"`
}

type Options struct {
	// WithRoutine requests the generated seven-day plan.
	WithRoutine bool
	// ImagesPerCategory overrides the service default when positive.
	ImagesPerCategory int
}

type Service struct {
	detector     landmarks.Detector
	sampler      *gallery.Sampler
	routines     *routine.Generator
	metrics      *metrics.Registry
	imagesPerCat int
	imageURL     func(gallery.ImageRef) string
}

type Config struct {
	Detector          landmarks.Detector
	Sampler           *gallery.Sampler
	Routines          *routine.Generator
	Metrics           *metrics.Registry
	ImagesPerCategory int
	// ImageURL turns a gallery reference into what clients fetch. Nil keeps
	// the bare reference.
	ImageURL func(gallery.ImageRef) string
}

func NewService(cfg Config) *Service {
	n := cfg.ImagesPerCategory
	if n <= 0 {
		n = 2
	}
	url := cfg.ImageURL
	if url == nil {
		url = func(r gallery.ImageRef) string { return string(r) }
	}
	return &Service{
		detector:     cfg.Detector,
		sampler:      cfg.Sampler,
		routines:     cfg.Routines,
		metrics:      cfg.Metrics,
		imagesPerCat: n,
		imageURL:     url,
	}
}

// Detect runs landmark extraction and classification. Terminal outcomes are
// reported through Status with a nil error; the error is reserved for
// infrastructure failures such as an unreachable pose service.
func (s *Service) Detect(ctx context.Context, image []byte) (*Detection, error) {
	set, err := s.detector.Detect(ctx, image)
	if errors.Is(err, landmarks.ErrNoDetection) {
		return s.finish(ctx, &Detection{Status: StatusNotDetected, Message: MessageNotDetected}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("detect landmarks: %w", err)
	}

	sample, err := set.PoseSample()
	if err != nil {
		return s.finish(ctx, &Detection{Status: StatusNotDetected, Message: MessageNotDetected}), nil
	}
	return s.finish(ctx, ClassifySample(sample)), nil
}

// ClassifySample applies the confidence gate and the classifier to a sample
// that was extracted elsewhere.
func ClassifySample(sample models.PoseSample) *Detection {
	if !classifier.Confident(sample) {
		return &Detection{Status: StatusInconclusive, Sample: &sample, Message: MessageInconclusive}
	}
	m := classifier.Measure(sample)
	d := &Detection{
		BodyType:     classifier.ClassifyMeasurements(m),
		Measurements: &m,
		Sample:       &sample,
	}
	if catalog.Has(d.BodyType) {
		d.Status = StatusCompleted
	} else {
		d.Status = StatusNoSuggestions
		d.Message = MessageNoSuggestions
	}
	return d
}

func (s *Service) finish(ctx context.Context, d *Detection) *Detection {
	log.Ctx(ctx).Info().
		Str("status", string(d.Status)).
		Str("body_type", d.BodyType.String()).
		Msg("body detection finished")
	return d
}

// Err maps a non-completed status to its error.
func (d *Detection) Err() error {
	switch d.Status {
	case StatusNotDetected:
		return ErrNoBodyDetected
	case StatusInconclusive:
		return ErrLowConfidence
	case StatusNoSuggestions:
		return ErrCatalogMiss
	default:
		return nil
	}
}

// Recommend assembles the bundle for a detected body type and a gender.
// Gallery and routine failures are downgraded to warnings; only a catalog miss
// is returned as an error.
func (s *Service) Recommend(ctx context.Context, b models.BodyType, g models.Gender, opts Options) (*models.ResultBundle, error) {
	rec, err := catalog.Lookup(b, g)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogMiss, err)
	}

	count := s.imagesPerCat
	if opts.ImagesPerCategory > 0 {
		count = opts.ImagesPerCategory
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		images   = make(map[models.Category][]string, len(models.Categories))
		warnings []string
		plan     models.WeeklyRoutine
	)
	warn := func(msg string) {
		mu.Lock()
		warnings = append(warnings, msg)
		mu.Unlock()
	}

	if opts.WithRoutine {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.routines.Generate(ctx, b)
			if err != nil {
				if errors.Is(err, routine.ErrDisabled) {
					warn("Weekly routine generation is not configured.")
				} else {
					warn("Weekly routine could not be generated right now.")
				}
				return
			}
			plan = r
		}()
	}

	if s.sampler != nil {
		for _, cat := range models.Categories {
			wg.Add(1)
			go func(cat models.Category) {
				defer wg.Done()
				q := gallery.Query{BodyType: b, Gender: g, Category: cat, Count: count}
				refs, err := s.sampler.Sample(ctx, q)
				if err != nil {
					s.galleryMiss(ctx, cat, err)
					warn(galleryWarning(q, err))
					return
				}
				paths := make([]string, len(refs))
				for i, r := range refs {
					paths[i] = s.imageURL(r)
				}
				mu.Lock()
				images[cat] = paths
				mu.Unlock()
			}(cat)
		}
	}

	wg.Wait()

	return &models.ResultBundle{
		BodyType:    b,
		Gender:      g,
		Description: rec.Description,
		Exercise:    models.Section{Tips: rec.Exercise, Images: nonNil(images[models.CategoryExercise])},
		Yoga:        models.Section{Tips: rec.Yoga, Images: nonNil(images[models.CategoryYoga])},
		Outfit:      models.OutfitSection{Tips: rec.Outfit, Images: nonNil(images[models.CategoryOutfits])},
		Posture:     rec.Posture,
		Routine:     plan,
		Warnings:    sortedWarnings(warnings),
	}, nil
}

// Evaluate runs the whole workflow for one image.
func (s *Service) Evaluate(ctx context.Context, image []byte, g models.Gender, opts Options) (*Outcome, error) {
	d, err := s.Detect(ctx, image)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Detection: *d}
	if d.Status == StatusCompleted {
		bundle, err := s.Recommend(ctx, d.BodyType, g, opts)
		if err != nil {
			// Detect already checked the catalog, so this is unreachable
			// unless the catalog and classifier drift apart.
			out.Status = StatusNoSuggestions
			out.Message = MessageNoSuggestions
		} else {
			out.Bundle = bundle
		}
	}
	s.metrics.Inc(ctx, "evaluations_total", map[string]string{
		"status":    string(out.Status),
		"body_type": out.BodyType.String(),
	}, 1)
	return out, nil
}

func (s *Service) galleryMiss(ctx context.Context, cat models.Category, err error) {
	reason := "error"
	switch {
	case errors.Is(err, gallery.ErrUnavailable):
		reason = "unavailable"
	case errors.Is(err, gallery.ErrInsufficient):
		reason = "insufficient"
	}
	log.Ctx(ctx).Warn().Err(err).Str("category", string(cat)).Msg("gallery images omitted")
	s.metrics.Inc(ctx, "gallery_misses_total", map[string]string{"reason": reason, "category": string(cat)}, 1)
}

func galleryWarning(q gallery.Query, err error) string {
	switch {
	case errors.Is(err, gallery.ErrUnavailable):
		return "❌ Folder not found: " + q.Dir()
	case errors.Is(err, gallery.ErrInsufficient):
		return "⚠️ Not enough images in: " + q.Dir()
	default:
		return "⚠️ Images unavailable for: " + q.Dir()
	}
}

// sortedWarnings orders warnings so concurrent producers give stable output.
func sortedWarnings(w []string) []string {
	slices.Sort(w)
	return w
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
