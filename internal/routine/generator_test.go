package routine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/body-shape-agent/internal/metrics"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

type fakeText struct {
	reply   string
	err     error
	block   bool
	panics  bool
	prompts []string
}

func (f *fakeText) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.panics {
		panic("backend exploded")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestGenerateSuccess(t *testing.T) {
	reg := metrics.NewRegistry()
	text := &fakeText{reply: "```json\n" + validRoutineJSON() + "\n```"}
	g := NewGenerator(text, time.Second, reg)

	routine, err := g.Generate(context.Background(), models.Pear)
	require.NoError(t, err)
	assert.Len(t, routine.Days, models.RoutineDays)
	require.Len(t, text.prompts, 1)
	assert.Equal(t, BuildPrompt(models.Pear), text.prompts[0])
	assert.Equal(t, int64(1), reg.Value("routine_generations_total", map[string]string{"result": "ok"}))
}

func TestGenerateFailuresYieldEmptyRoutine(t *testing.T) {
	tests := map[string]*fakeText{
		"service error": {err: errors.New("503 unavailable")},
		"malformed":     {reply: "Sure! Here's a plan: Day 1 - jog."},
		"partial":       {reply: `{"Day 1":{"workout":"run"}}`},
		"panic":         {panics: true},
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(text, time.Second, nil)
			var routine models.WeeklyRoutine
			var err error
			require.NotPanics(t, func() {
				routine, err = g.Generate(context.Background(), models.Apple)
			})
			require.ErrorIs(t, err, ErrGenerationFailed)
			assert.True(t, routine.IsEmpty())
			assert.Len(t, text.prompts, 1, "single attempt only")
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	reg := metrics.NewRegistry()
	g := NewGenerator(&fakeText{block: true}, 20*time.Millisecond, reg)

	start := time.Now()
	routine, err := g.Generate(context.Background(), models.Rectangle)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, routine.IsEmpty())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int64(1), reg.Value("routine_generations_total", map[string]string{"result": "error"}))
}

func TestGenerateCancelledByCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGenerator(&fakeText{block: true}, time.Minute, nil)

	_, err := g.Generate(ctx, models.Hourglass)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateDisabled(t *testing.T) {
	g := NewGenerator(nil, 0, nil)
	assert.False(t, g.Enabled())

	routine, err := g.Generate(context.Background(), models.Pear)
	require.ErrorIs(t, err, ErrDisabled)
	assert.True(t, routine.IsEmpty())

	var nilGen *Generator
	_, err = nilGen.Generate(context.Background(), models.Pear)
	require.ErrorIs(t, err, ErrDisabled)
}
