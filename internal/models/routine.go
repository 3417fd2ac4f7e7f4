package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RoutineDays is the number of days in a generated plan.
const RoutineDays = 7

// DailyPlan is one day of a generated wellness routine.
type DailyPlan struct {
	Workout        string `json:"workout"`
	Yoga           string `json:"yoga"`
	Nutrition      string `json:"nutrition"`
	Hydration      string `json:"hydration"`
	MentalWellness string `json:"mental_wellness"`
	Sleep          string `json:"sleep"`
	Habit          string `json:"habit"`
}

// DailyPlanFields are the JSON keys every day must carry.
var DailyPlanFields = []string{"workout", "yoga", "nutrition", "hydration", "mental_wellness", "sleep", "habit"}

// DayLabel returns "Day n" for a 1-based day number.
func DayLabel(n int) string {
	return fmt.Sprintf("Day %d", n)
}

// WeeklyRoutine is either empty or holds all seven days in order.
type WeeklyRoutine struct {
	Days []DailyPlan
}

func (w WeeklyRoutine) IsEmpty() bool {
	return len(w.Days) == 0
}

// MarshalJSON writes the routine as an object keyed "Day 1".."Day 7", keeping
// day order.
func (w WeeklyRoutine) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range w.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(DayLabel(i + 1))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(day)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
