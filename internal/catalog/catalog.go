// Package catalog holds the static guidance shown for each body shape.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

// ErrNotFound is returned for body types without guidance, Unknown included.
var ErrNotFound = errors.New("no suggestions for body type")

// Entry is the guidance stored for one body type.
type Entry struct {
	Description    string
	Exercise       []string
	Yoga           []string
	OutfitByGender map[models.Gender]string
	Posture        []string
}

// Recommendation is an Entry resolved for a single gender.
type Recommendation struct {
	BodyType    models.BodyType
	Gender      models.Gender
	Description string
	Exercise    []string
	Yoga        []string
	Outfit      string
	Posture     []string
}

// Has reports whether the catalog has guidance for b.
func Has(b models.BodyType) bool {
	_, ok := entries[b]
	return ok
}

// Lookup resolves the guidance for a body type and gender. The returned slices
// are copies.
func Lookup(b models.BodyType, g models.Gender) (Recommendation, error) {
	e, ok := entries[b]
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %s", ErrNotFound, b)
	}
	outfit, ok := e.OutfitByGender[g]
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %s has no outfit tips for %s", ErrNotFound, b, g)
	}
	return Recommendation{
		BodyType:    b,
		Gender:      g,
		Description: e.Description,
		Exercise:    slices.Clone(e.Exercise),
		Yoga:        slices.Clone(e.Yoga),
		Outfit:      outfit,
		Posture:     slices.Clone(e.Posture),
	}, nil
}

// EntryFor returns a copy of the stored entry with both outfit tips.
func EntryFor(b models.BodyType) (Entry, error) {
	e, ok := entries[b]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, b)
	}
	return Entry{
		Description:    e.Description,
		Exercise:       slices.Clone(e.Exercise),
		Yoga:           slices.Clone(e.Yoga),
		OutfitByGender: maps.Clone(e.OutfitByGender),
		Posture:        slices.Clone(e.Posture),
	}, nil
}

var entries = map[models.BodyType]Entry{
	models.Apple: {
		Description: "You have a broader upper body and a fuller midsection.",
		Exercise: []string{
			"Focus on cardio exercises like brisk walking and cycling.",
			"Strengthen your core with planks and crunches.",
		},
		Yoga: []string{
			"Practice the Bridge Pose to strengthen the spine.",
			"Include Boat Pose to tone the abdominal muscles.",
		},
		OutfitByGender: map[models.Gender]string{
			models.Female: "Prefer empire waist dresses, V-neck tops, and flowy tunics with A-line skirts.",
			models.Male:   "Choose structured blazers, dark shirts, and relaxed-fit trousers.",
		},
		Posture: []string{
			"Maintain proper spine alignment while sitting.",
			"Avoid leaning forward postures during walking and standing.",
		},
	},
	models.Pear: {
		Description: "Your hips are wider than your shoulders, giving a pear-shaped figure.",
		Exercise: []string{
			"Strengthen your lower body with lunges and squats.",
			"Incorporate cycling to tone your legs.",
		},
		Yoga: []string{
			"Chair Pose (Utkatasana) to build lower body strength.",
			"Warrior II Pose",
		},
		OutfitByGender: map[models.Gender]string{
			models.Female: "Try A-line skirts, darker bottoms, and boat-neck or detailed tops.",
			models.Male:   "Wear slim-fit shirts and lighter upper wear with straight pants.",
		},
		Posture: []string{
			"Strengthen glutes and lower back muscles.",
			"Practice standing tall without slouching.",
		},
	},
	models.Hourglass: {
		Description: "You have balanced shoulders and hips with a well-defined waist.",
		Exercise: []string{
			"Go for full-body workouts like Pilates and strength training.",
			"Maintain overall fitness with cardio.",
		},
		Yoga: []string{
			"Cobra Pose to enhance flexibility.",
			"Triangle Pose to tone the sides.",
		},
		OutfitByGender: map[models.Gender]string{
			models.Female: "Wear fitted dresses, wrap tops, and high-waist pants to highlight your waist.",
			models.Male:   "Prefer fitted blazers, tucked-in shirts, and slim trousers.",
		},
		Posture: []string{
			"Maintain a neutral spine posture.",
			"Avoid overarching your lower back while sitting.",
		},
	},
	models.Rectangle: {
		Description: "Your body is straight with similar measurements for shoulders, waist, and hips.",
		Exercise: []string{
			"Engage in strength training and core workouts.",
			"Add HIIT routines to improve overall muscle tone.",
		},
		Yoga: []string{
			"Camel Pose for opening the chest.",
			"Bow Pose to strengthen the back.",
		},
		OutfitByGender: map[models.Gender]string{
			models.Female: "Wear peplum tops, ruffled sleeves, and belted waistlines.",
			models.Male:   "Layer clothing with jackets and bomber jackets for a structured look.",
		},
		Posture: []string{
			"Focus on building stronger shoulders and glutes.",
			"Practice exercises that enhance body definition.",
		},
	},
	models.InvertedTriangle: {
		Description: "You have broad shoulders with narrower hips.",
		Exercise: []string{
			"Focus on lower body strength with squats and glute bridges.",
			"Balance proportions with targeted leg workouts.",
		},
		Yoga: []string{
			"Tree Pose to improve balance and focus.",
			"Downward Dog to lengthen the spine and relieve tension.",
		},
		OutfitByGender: map[models.Gender]string{
			models.Female: "Opt for flared skirts and wide-leg trousers with simple tops.",
			models.Male:   "Wear straight pants and avoid heavy shoulder padding.",
		},
		Posture: []string{
			"Stretch your shoulders regularly.",
			"Strengthen your core to support better posture.",
		},
	},
}
