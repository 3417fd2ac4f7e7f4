package routine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

// ErrMalformed is returned when generated text is not a complete seven-day
// routine.
var ErrMalformed = errors.New("malformed routine")

const fence = "```"

// StripFences removes a leading code fence, with or without a language tag,
// and a trailing fence. The tag is a single word of letters and digits right
// after the opening fence; anything else there is kept as content.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, fence); ok {
		rest = strings.TrimLeft(rest, " \t")
		end := strings.IndexFunc(rest, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if end < 0 {
			end = len(rest)
		}
		text = rest[end:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

// Parse turns generated text into a routine. Either all seven days with all
// seven fields are present, or an empty routine and an ErrMalformed error are
// returned.
func Parse(text string) (models.WeeklyRoutine, error) {
	body := StripFences(text)
	if body == "" {
		return models.WeeklyRoutine{}, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return models.WeeklyRoutine{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.WeeklyRoutine{}, fmt.Errorf("%w: trailing data after routine", ErrMalformed)
	}
	if len(raw) != models.RoutineDays {
		return models.WeeklyRoutine{}, fmt.Errorf("%w: expected %d days, got %d", ErrMalformed, models.RoutineDays, len(raw))
	}

	routine := models.WeeklyRoutine{Days: make([]models.DailyPlan, 0, models.RoutineDays)}
	for i := 1; i <= models.RoutineDays; i++ {
		label := models.DayLabel(i)
		dayJSON, ok := raw[label]
		if !ok {
			return models.WeeklyRoutine{}, fmt.Errorf("%w: missing %q", ErrMalformed, label)
		}
		day, err := parseDay(dayJSON)
		if err != nil {
			return models.WeeklyRoutine{}, fmt.Errorf("%w: %s: %v", ErrMalformed, label, err)
		}
		routine.Days = append(routine.Days, day)
	}
	return routine, nil
}

func parseDay(data json.RawMessage) (models.DailyPlan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.DailyPlan{}, err
	}
	if fields == nil {
		return models.DailyPlan{}, errors.New("day is null")
	}
	for _, key := range models.DailyPlanFields {
		v, ok := fields[key]
		if !ok {
			return models.DailyPlan{}, fmt.Errorf("missing field %q", key)
		}
		if len(v) == 0 || v[0] != '"' {
			return models.DailyPlan{}, fmt.Errorf("field %q is not a string", key)
		}
	}

	var day models.DailyPlan
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&day); err != nil {
		return models.DailyPlan{}, err
	}
	return day, nil
}
