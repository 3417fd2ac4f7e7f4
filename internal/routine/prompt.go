package routine

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

var emphasis = map[models.BodyType]string{
	models.Pear:             "lower-body strength and toning (squats, lunges, glute work) with lighter upper-body volume",
	models.Apple:            "steady cardio and core strength, with nutrition that supports a trimmer midsection",
	models.InvertedTriangle: "lower-body development and hip mobility to balance broad shoulders, plus shoulder stretching",
	models.Hourglass:        "balanced full-body training such as Pilates and strength circuits that keep proportions even",
	models.Rectangle:        "strength training and core work that build definition through the shoulders and glutes",
}

// BuildPrompt returns the instruction sent to the text generator. It depends
// on the body type only.
func BuildPrompt(b models.BodyType) string {
	focus, ok := emphasis[b]
	if !ok {
		focus = "a balanced mix of cardio, strength and flexibility"
	}

	days := make([]string, 0, models.RoutineDays)
	for i := 1; i <= models.RoutineDays; i++ {
		days = append(days, fmt.Sprintf("%q", models.DayLabel(i)))
	}

	return fmt.Sprintf(`You are a certified fitness and wellness coach. Create a 7-day wellness routine for a person with a %s body type.

Emphasis: %s.

Rules:
- Every day must differ from the others. Do not repeat a workout, yoga pose, meal idea or habit within the week.
- Vary the style and tone of each entry so the week feels fresh.
- Keep each value to one or two practical sentences.

Respond with ONLY a JSON object, no markdown and no commentary. It must have exactly these keys: %s.
Each day must be an object with exactly these string fields: %s.

Example of one day:
{"workout": "...", "yoga": "...", "nutrition": "...", "hydration": "...", "mental_wellness": "...", "sleep": "...", "habit": "..."}`,
		b, focus, strings.Join(days, ", "), strings.Join(models.DailyPlanFields, ", "))
}
