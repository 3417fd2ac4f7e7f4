// Package landmarks talks to the pose-estimation model that turns a photo
// into named body landmarks.
package landmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

// ErrNoDetection means no body was found in the image.
var ErrNoDetection = errors.New("no body detected")

// Name identifies an anatomical landmark. Values follow the MediaPipe pose
// landmark names in snake case.
type Name string

const (
	Nose          Name = "nose"
	LeftShoulder  Name = "left_shoulder"
	RightShoulder Name = "right_shoulder"
	LeftElbow     Name = "left_elbow"
	RightElbow    Name = "right_elbow"
	LeftWrist     Name = "left_wrist"
	RightWrist    Name = "right_wrist"
	LeftHip       Name = "left_hip"
	RightHip      Name = "right_hip"
	LeftKnee      Name = "left_knee"
	RightKnee     Name = "right_knee"
	LeftAnkle     Name = "left_ankle"
	RightAnkle    Name = "right_ankle"
)

// Set is the landmarks found in one image.
type Set map[Name]models.LandmarkPoint

// Detector finds landmarks in raw image bytes. It returns ErrNoDetection when
// the image contains no body.
type Detector interface {
	Detect(ctx context.Context, image []byte) (Set, error)
}

// PoseSample extracts the shoulders and hips. A missing point is treated the
// same as no detection.
func (s Set) PoseSample() (models.PoseSample, error) {
	var sample models.PoseSample
	targets := []struct {
		name Name
		dst  *models.LandmarkPoint
	}{
		{LeftShoulder, &sample.LeftShoulder},
		{RightShoulder, &sample.RightShoulder},
		{LeftHip, &sample.LeftHip},
		{RightHip, &sample.RightHip},
	}
	for _, t := range targets {
		p, ok := s[t.name]
		if !ok {
			return models.PoseSample{}, fmt.Errorf("%w: %s missing", ErrNoDetection, t.name)
		}
		*t.dst = p
	}
	return sample, nil
}
