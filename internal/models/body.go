package models

import (
	"fmt"
	"strings"
)

// LandmarkPoint is a normalized 2-D landmark with the detector's confidence.
type LandmarkPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// PoseSample holds the four landmarks the classifier works on.
type PoseSample struct {
	LeftShoulder  LandmarkPoint `json:"left_shoulder"`
	RightShoulder LandmarkPoint `json:"right_shoulder"`
	LeftHip       LandmarkPoint `json:"left_hip"`
	RightHip      LandmarkPoint `json:"right_hip"`
}

type BodyType int

const (
	Unknown BodyType = iota
	Hourglass
	InvertedTriangle
	Pear
	Rectangle
	Apple
)

// BodyTypes lists every classifiable shape, Unknown excluded.
var BodyTypes = []BodyType{Hourglass, InvertedTriangle, Pear, Rectangle, Apple}

var bodyTypeNames = map[BodyType]string{
	Unknown:          "Unknown",
	Hourglass:        "Hourglass",
	InvertedTriangle: "Inverted Triangle",
	Pear:             "Pear",
	Rectangle:        "Rectangle",
	Apple:            "Apple",
}

// String returns the display name, which is also the asset directory name.
func (b BodyType) String() string {
	if name, ok := bodyTypeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BodyType(%d)", int(b))
}

// ParseBodyType accepts display names as well as compact forms such as
// "inverted_triangle" or "InvertedTriangle".
func ParseBodyType(s string) (BodyType, error) {
	key := normalizeName(s)
	for b, name := range bodyTypeNames {
		if normalizeName(name) == key {
			return b, nil
		}
	}
	return Unknown, fmt.Errorf("unknown body type %q", s)
}

func (b BodyType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BodyType) UnmarshalText(text []byte) error {
	parsed, err := ParseBodyType(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

type Gender int

const (
	Female Gender = iota
	Male
)

// Genders is the closed set of selectors for gender-partitioned content.
var Genders = []Gender{Female, Male}

func (g Gender) String() string {
	switch g {
	case Female:
		return "Female"
	case Male:
		return "Male"
	default:
		return fmt.Sprintf("Gender(%d)", int(g))
	}
}

func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f", "woman":
		return Female, nil
	case "male", "m", "man":
		return Male, nil
	default:
		return Female, fmt.Errorf("unknown gender %q", s)
	}
}

func (g Gender) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(text []byte) error {
	parsed, err := ParseGender(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Category names a gallery section. Values match the asset directory names.
type Category string

const (
	CategoryExercise Category = "Exercise"
	CategoryYoga     Category = "Yoga"
	CategoryOutfits  Category = "Outfits"
)

var Categories = []Category{CategoryExercise, CategoryYoga, CategoryOutfits}

func normalizeName(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
