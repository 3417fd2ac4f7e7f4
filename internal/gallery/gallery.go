// Package gallery picks inspiration images for a body type, gender and
// category from an asset store.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

var (
	// ErrUnavailable means the store has no directory for the query.
	ErrUnavailable = errors.New("gallery folder not found")
	// ErrInsufficient means the directory holds fewer images than requested.
	ErrInsufficient = errors.New("not enough gallery images")
	// ErrDirNotFound is returned by AssetStore implementations for a missing
	// directory.
	ErrDirNotFound = errors.New("asset directory not found")
)

// AssetStore lists the file names directly inside dir. dir uses forward
// slashes, e.g. "Pear/Female/Yoga".
type AssetStore interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// ImageRef identifies an image inside the store, e.g.
// "Pear/Female/Yoga/000012.jpg".
type ImageRef string

type Query struct {
	BodyType models.BodyType
	Gender   models.Gender
	Category models.Category
	Count    int
}

// Dir returns the store directory holding images for the query.
func (q Query) Dir() string {
	return path.Join(q.BodyType.String(), q.Gender.String(), string(q.Category))
}

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

func isImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

type Sampler struct {
	store AssetStore

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a Sampler drawing from store. A nil rng uses a randomly
// seeded source; tests pass a seeded one.
func NewSampler(store AssetStore, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler{store: store, rng: rng}
}

// Sample returns exactly q.Count distinct images chosen uniformly at random,
// or no images at all together with ErrUnavailable or ErrInsufficient.
func (s *Sampler) Sample(ctx context.Context, q Query) ([]ImageRef, error) {
	if q.Count <= 0 {
		return nil, fmt.Errorf("gallery count must be positive, got %d", q.Count)
	}
	dir := q.Dir()

	names, err := s.store.List(ctx, dir)
	if err != nil {
		if errors.Is(err, ErrDirNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, dir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	images := make([]string, 0, len(names))
	for _, name := range names {
		if isImage(name) {
			images = append(images, name)
		}
	}
	if len(images) < q.Count {
		log.Ctx(ctx).Debug().
			Str("dir", dir).
			Int("available", len(images)).
			Int("requested", q.Count).
			Msg("gallery has too few images")
		return nil, fmt.Errorf("%w: %s has %d, need %d", ErrInsufficient, dir, len(images), q.Count)
	}

	s.mu.Lock()
	picks := s.rng.Perm(len(images))[:q.Count]
	s.mu.Unlock()

	refs := make([]ImageRef, 0, q.Count)
	for _, i := range picks {
		refs = append(refs, ImageRef(path.Join(dir, images[i])))
	}
	return refs, nil
}
