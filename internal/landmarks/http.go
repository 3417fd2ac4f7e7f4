package landmarks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

// MaxErrorBodySize is the maximum size of error body kept in HTTPError.
const MaxErrorBodySize = 500

// HTTPError is a non-2xx answer from the pose service.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("pose service %s (status %d): %s", e.Status, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("pose service %s (status %d)", e.Status, e.StatusCode)
}

type poseResponse struct {
	Landmarks []struct {
		Name       string  `json:"name"`
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Visibility float64 `json:"visibility"`
	} `json:"landmarks"`
}

// HTTPDetector posts the image to a pose-estimation sidecar and reads back
// normalized landmarks. An empty landmark list means no detection.
type HTTPDetector struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, image []byte) (Set, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build pose request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pose request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize+1))
		text := strings.TrimSpace(string(body))
		if len(text) > MaxErrorBodySize {
			text = text[:MaxErrorBodySize] + "..."
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Body: text}
	}

	var pr poseResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode pose response: %w", err)
	}

	log.Ctx(ctx).Debug().
		Int("landmarks", len(pr.Landmarks)).
		Dur("duration", time.Since(start)).
		Msg("pose service answered")

	if len(pr.Landmarks) == 0 {
		return nil, ErrNoDetection
	}
	set := make(Set, len(pr.Landmarks))
	for _, l := range pr.Landmarks {
		set[Name(strings.ToLower(l.Name))] = models.LandmarkPoint{X: l.X, Y: l.Y, Visibility: l.Visibility}
	}
	return set, nil
}
