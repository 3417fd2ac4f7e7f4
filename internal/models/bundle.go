package models

// Section pairs tips with inspiration images.
type Section struct {
	Tips   []string `json:"tips"`
	Images []string `json:"images"`
}

type OutfitSection struct {
	Tips   string   `json:"tips"`
	Images []string `json:"images"`
}

// ResultBundle is everything returned for one evaluation. It is assembled once
// and not modified afterwards.
type ResultBundle struct {
	BodyType    BodyType      `json:"body_type"`
	Gender      Gender        `json:"gender"`
	Description string        `json:"description"`
	Exercise    Section       `json:"exercise"`
	Yoga        Section       `json:"yoga"`
	Outfit      OutfitSection `json:"outfit"`
	Posture     []string      `json:"posture"`
	Routine     WeeklyRoutine `json:"routine"`
	Warnings    []string      `json:"warnings,omitempty"`
}
