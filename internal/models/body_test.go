package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBodyType(t *testing.T) {
	tests := []struct {
		in   string
		want BodyType
	}{
		{"Hourglass", Hourglass},
		{"Inverted Triangle", InvertedTriangle},
		{"inverted_triangle", InvertedTriangle},
		{"InvertedTriangle", InvertedTriangle},
		{"pear", Pear},
		{" Rectangle ", Rectangle},
		{"APPLE", Apple},
		{"unknown", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBodyType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseBodyType("triangle")
	assert.Error(t, err)
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("Female")
	require.NoError(t, err)
	assert.Equal(t, Female, g)

	g, err = ParseGender("male")
	require.NoError(t, err)
	assert.Equal(t, Male, g)

	_, err = ParseGender("other")
	assert.Error(t, err)
}

func TestWeeklyRoutineJSONKeepsDayOrder(t *testing.T) {
	routine := WeeklyRoutine{}
	for i := 0; i < RoutineDays; i++ {
		routine.Days = append(routine.Days, DailyPlan{Workout: DayLabel(i + 1)})
	}

	data, err := json.Marshal(routine)
	require.NoError(t, err)

	s := string(data)
	for i := 1; i < RoutineDays; i++ {
		assert.Less(t, strings.Index(s, `"`+DayLabel(i)+`"`), strings.Index(s, `"`+DayLabel(i+1)+`"`))
	}

	empty, err := json.Marshal(WeeklyRoutine{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestBundleJSONShape(t *testing.T) {
	b := ResultBundle{BodyType: InvertedTriangle, Gender: Male}
	data, err := json.Marshal(b)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Inverted Triangle", out["body_type"])
	assert.Equal(t, "Male", out["gender"])
	assert.Contains(t, out, "outfit")
	assert.Contains(t, out, "routine")
}
