// Package routine asks a text-generation service for a seven-day wellness
// plan and validates the answer.
package routine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/metrics"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

var (
	// ErrGenerationFailed wraps every failure of Generate: transport, service
	// and parse errors alike.
	ErrGenerationFailed = errors.New("routine generation failed")
	// ErrDisabled is returned when no text generator is configured.
	ErrDisabled = errors.New("routine generation disabled")
)

const DefaultTimeout = 45 * time.Second

// TextGenerator sends one prompt and returns the raw reply.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Generator struct {
	text    TextGenerator
	timeout time.Duration
	metrics *metrics.Registry
}

// NewGenerator returns a Generator. text may be nil, in which case every call
// returns ErrDisabled.
func NewGenerator(text TextGenerator, timeout time.Duration, reg *metrics.Registry) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{text: text, timeout: timeout, metrics: reg}
}

func (g *Generator) Enabled() bool {
	return g != nil && g.text != nil
}

// Generate makes a single attempt at a routine for b. On any failure it
// returns an empty routine and an error; it never returns a partial routine.
func (g *Generator) Generate(ctx context.Context, b models.BodyType) (models.WeeklyRoutine, error) {
	if !g.Enabled() {
		return models.WeeklyRoutine{}, ErrDisabled
	}
	logger := log.Ctx(ctx).With().Str("body_type", b.String()).Logger()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.call(ctx, BuildPrompt(b))
	if err != nil {
		g.record(ctx, "error")
		logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("routine request failed")
		return models.WeeklyRoutine{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	routine, err := Parse(text)
	if err != nil {
		g.record(ctx, "malformed")
		logger.Warn().Err(err).Int("response_bytes", len(text)).Msg("routine response rejected")
		return models.WeeklyRoutine{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	g.record(ctx, "ok")
	logger.Info().Dur("duration", time.Since(start)).Msg("routine generated")
	return routine, nil
}

// call shields the caller from panics inside a backend client.
func (g *Generator) call(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text generator panicked: %v", r)
		}
	}()
	return g.text.GenerateText(ctx, prompt)
}

func (g *Generator) record(ctx context.Context, result string) {
	g.metrics.Inc(ctx, "routine_generations_total", map[string]string{"result": result}, 1)
}
