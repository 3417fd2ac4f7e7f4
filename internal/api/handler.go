// Package api exposes the estimator over REST.
package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/catalog"
	"github.com/BerylCAtieno/body-shape-agent/internal/estimator"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

// multipartOverhead is allowed on top of the image limit for form fields and
// boundaries.
const multipartOverhead = 1 << 20

var errImageTooLarge = errors.New("image too large")

type Handler struct {
	svc           *estimator.Service
	maxImageBytes int64
}

func NewHandler(svc *estimator.Service, maxImageBytes int64) *Handler {
	return &Handler{svc: svc, maxImageBytes: maxImageBytes}
}

// Register mounts the v1 routes on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.POST("/detect", h.Detect)
	v1.POST("/classify", h.Classify)
	v1.POST("/recommendations", h.Recommend)
	v1.POST("/evaluate", h.Evaluate)
	v1.GET("/body-types", h.BodyTypes)
}

// RegisterGallery serves the image tree read-only under /gallery. Only files
// are served; directory paths answer 404.
func RegisterGallery(r gin.IRouter, fsys fs.FS) {
	r.StaticFS("/gallery", http.FS(filesOnly{fsys}))
}

// filesOnly hides directories from Open.
type filesOnly struct {
	fs.FS
}

func (f filesOnly) Open(name string) (fs.File, error) {
	file, err := f.FS.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return file, nil
}

type recommendRequest struct {
	BodyType          *models.BodyType `json:"body_type"`
	Gender            models.Gender    `json:"gender"`
	Routine           bool             `json:"routine"`
	ImagesPerCategory int              `json:"images_per_category"`
}

type classifyRequest struct {
	Landmarks *models.PoseSample `json:"landmarks"`
}

type bodyTypeInfo struct {
	BodyType       models.BodyType `json:"body_type"`
	Description    string          `json:"description,omitempty"`
	HasSuggestions bool            `json:"has_suggestions"`
}

// Detect classifies the uploaded image without requiring a gender, the first
// step of the two-step flow.
func (h *Handler) Detect(c *gin.Context) {
	image, ok := h.readImage(c)
	if !ok {
		return
	}
	d, err := h.svc.Detect(c.Request.Context(), image)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(detectionStatus(d.Status), d)
}

func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Landmarks == nil {
		badRequest(c, "landmarks are required")
		return
	}
	d := estimator.ClassifySample(*req.Landmarks)
	c.JSON(detectionStatus(d.Status), d)
}

func (h *Handler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.BodyType == nil {
		badRequest(c, "body_type is required")
		return
	}
	bundle, err := h.svc.Recommend(c.Request.Context(), *req.BodyType, req.Gender, estimator.Options{
		WithRoutine:       req.Routine,
		ImagesPerCategory: req.ImagesPerCategory,
	})
	if errors.Is(err, estimator.ErrCatalogMiss) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  estimator.StatusNoSuggestions,
			"message": estimator.MessageNoSuggestions,
		})
		return
	}
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// Evaluate runs the whole workflow in one call. Form fields: image (file),
// gender (default Female), routine (bool).
func (h *Handler) Evaluate(c *gin.Context) {
	image, ok := h.readImage(c)
	if !ok {
		return
	}

	gender := models.Female
	if raw := formOrQuery(c, "gender"); raw != "" {
		g, err := models.ParseGender(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		gender = g
	}
	withRoutine := false
	if raw := formOrQuery(c, "routine"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "routine must be a boolean")
			return
		}
		withRoutine = v
	}

	out, err := h.svc.Evaluate(c.Request.Context(), image, gender, estimator.Options{WithRoutine: withRoutine})
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(detectionStatus(out.Status), out)
}

func (h *Handler) BodyTypes(c *gin.Context) {
	out := make([]bodyTypeInfo, 0, len(models.BodyTypes))
	for _, b := range models.BodyTypes {
		info := bodyTypeInfo{BodyType: b}
		if e, err := catalog.EntryFor(b); err == nil {
			info.Description = e.Description
			info.HasSuggestions = true
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// readImage accepts either a multipart form with an "image" file or a raw
// image body. It writes the error response itself and reports false on
// failure.
func (h *Handler) readImage(c *gin.Context) ([]byte, bool) {
	var (
		image []byte
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+multipartOverhead)
		image, err = h.readFormImage(c)
	} else {
		image, err = h.readLimited(c.Request.Body)
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, errImageTooLarge), errors.As(err, &maxErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", h.maxImageBytes)})
		return nil, false
	case err != nil:
		badRequest(c, err.Error())
		return nil, false
	case len(image) == 0:
		badRequest(c, "image is required")
		return nil, false
	}
	return image, true
}

func (h *Handler) readFormImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("image file: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return h.readLimited(f)
}

func (h *Handler) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}

func formOrQuery(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

func detectionStatus(s estimator.Status) int {
	switch s {
	case estimator.StatusNotDetected, estimator.StatusInconclusive:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func upstreamError(c *gin.Context, err error) {
	log.Ctx(c.Request.Context()).Error().Err(err).Msg("estimation failed")
	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "pose service unavailable"})
}
