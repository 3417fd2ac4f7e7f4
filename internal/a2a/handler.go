package a2a

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/agent"
	"github.com/BerylCAtieno/body-shape-agent/internal/estimator"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

const askForPhoto = "Please attach a full, front-facing photo and tell me your gender (Female or Male)."

var errNoImage = errors.New("no image attached")

type A2AHandler struct {
	svc           *estimator.Service
	publicURL     string
	maxImageBytes int64
}

func NewA2AHandler(svc *estimator.Service, publicURL string, maxImageBytes int64) *A2AHandler {
	return &A2AHandler{
		svc:           svc,
		publicURL:     publicURL,
		maxImageBytes: maxImageBytes,
	}
}

// request is what a message asks for once its parts are decoded.
type request struct {
	image   []byte
	gender  models.Gender
	routine bool
}

// HandleMessage processes A2A JSON-RPC messages.
func (h *A2AHandler) HandleMessage(c *gin.Context) {
	logger := log.Ctx(c.Request.Context())

	// base64 inflates by 4/3; leave room for the envelope.
	limit := h.maxImageBytes/3*4 + 64<<10
	bodyBytes, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		logger.Warn().Err(err).Msg("read a2a request body")
		h.sendErrorResponse(c, "", "Failed to read request body", CodeParseError)
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil || rpcReq.Method == "" {
		logger.Debug().Msg("not a JSON-RPC envelope, trying direct message")
		h.handleDirectMessage(c, bodyBytes)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		logger.Warn().Str("method", rpcReq.Method).Msg("unknown a2a method")
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

// handleDirectMessage handles a bare MessageParams body without the JSON-RPC
// wrapper.
func (h *A2AHandler) handleDirectMessage(c *gin.Context, bodyBytes []byte) {
	var msgParams MessageParams
	if err := json.Unmarshal(bodyBytes, &msgParams); err != nil || len(msgParams.Message.Parts) == 0 {
		h.sendErrorResponse(c, "", "Invalid request format", CodeParseError)
		return
	}
	h.sendSuccessResponse(c, "direct-message", h.run(c, msgParams.Message))
}

func (h *A2AHandler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	paramsJSON, err := json.Marshal(rpcReq.Params)
	if err != nil {
		h.sendErrorResponse(c, rpcReq.ID, "Failed to parse parameters", CodeInvalidParams)
		return
	}
	var msgParams MessageParams
	if err := json.Unmarshal(paramsJSON, &msgParams); err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("invalid a2a params")
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}
	h.sendSuccessResponse(c, rpcReq.ID, h.run(c, msgParams.Message))
}

func (h *A2AHandler) run(c *gin.Context, msg A2AMessage) TaskResult {
	ctx := c.Request.Context()
	taskID := uuid.NewString()
	if msg.TaskID != nil && *msg.TaskID != "" {
		taskID = *msg.TaskID
	}
	contextID := uuid.NewString()
	if msg.ContextID != nil && *msg.ContextID != "" {
		contextID = *msg.ContextID
	}

	req, err := h.extractRequest(msg)
	if errors.Is(err, errNoImage) {
		return h.createTaskResult(taskID, contextID, StateInputRequired, askForPhoto, nil)
	}
	if err != nil {
		return h.createTaskResult(taskID, contextID, StateFailed, err.Error(), nil)
	}

	out, err := h.svc.Evaluate(ctx, req.image, req.gender, estimator.Options{WithRoutine: req.routine})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("task_id", taskID).Msg("evaluation failed")
		return h.createTaskResult(taskID, contextID, StateFailed, "Body shape estimation is unavailable right now. Please try again later.", nil)
	}

	switch out.Status {
	case estimator.StatusNotDetected, estimator.StatusInconclusive:
		return h.createTaskResult(taskID, contextID, StateInputRequired, out.Message, nil)
	case estimator.StatusNoSuggestions:
		return h.createTaskResult(taskID, contextID, StateCompleted, out.Message, nil)
	}
	return h.createTaskResult(taskID, contextID, StateCompleted, formatBundle(out.Bundle), out.Bundle)
}

// ServeAgentCard serves the agent card using Gin
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	data, err := agent.AgentCardData(h.publicURL)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("load agent card")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent card not available"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// extractRequest pulls the photo from file parts (or a data URL in a text
// part) and the gender and routine wish from the text. The most recent user
// text in a data part history is read first, so the current message wins.
func (h *A2AHandler) extractRequest(msg A2AMessage) (request, error) {
	req := request{gender: models.Female}
	var history, texts []string

	for _, part := range msg.Parts {
		switch part.Kind {
		case "file":
			if part.File == nil || req.image != nil {
				continue
			}
			if part.File.Bytes == "" {
				if part.File.URI != "" {
					return req, fmt.Errorf("file URIs are not supported, send the image bytes inline")
				}
				continue
			}
			img, err := h.decodeImage(part.File.Bytes)
			if err != nil {
				return req, err
			}
			req.image = img
		case "text":
			text := strings.TrimSpace(part.Text)
			if rest, ok := strings.CutPrefix(text, "data:image/"); ok && req.image == nil {
				if _, payload, found := strings.Cut(rest, ";base64,"); found {
					img, err := h.decodeImage(payload)
					if err != nil {
						return req, err
					}
					req.image = img
					continue
				}
			}
			if text != "" {
				texts = append(texts, text)
			}
		case "data":
			if text := latestUserText(part.Data); text != "" {
				history = append(history, text)
			}
		}
	}

	if req.image == nil {
		return req, errNoImage
	}
	for _, text := range append(history, texts...) {
		readPreferences(text, &req)
	}
	return req, nil
}

// latestUserText returns the newest text item of a conversation history data
// part, skipping this agent's own replies.
func latestUserText(data any) string {
	var items []map[string]any
	switch v := data.(type) {
	case nil:
		return ""
	case []map[string]any:
		items = v
	default:
		var raw []byte
		switch v := v.(type) {
		case json.RawMessage:
			raw = v
		case []byte:
			raw = v
		case string:
			raw = []byte(v)
		default:
			var err error
			if raw, err = json.Marshal(v); err != nil {
				return ""
			}
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
	}

	for i := len(items) - 1; i >= 0; i-- {
		if kind, _ := items[i]["kind"].(string); kind != "text" {
			continue
		}
		text, _ := items[i]["text"].(string)
		text = strings.NewReplacer("<p>", "", "</p>", "").Replace(text)
		text = strings.TrimSpace(text)
		if !strings.ContainsFunc(text, unicode.IsLetter) || isAgentText(text) {
			continue
		}
		return text
	}
	return ""
}

func isAgentText(text string) bool {
	switch text {
	case askForPhoto, estimator.MessageNotDetected, estimator.MessageInconclusive, estimator.MessageNoSuggestions:
		return true
	}
	return strings.HasPrefix(text, "# Your Body Type")
}

var negations = map[string]bool{
	"no":      true,
	"not":     true,
	"don":     true,
	"dont":    true,
	"never":   true,
	"skip":    true,
	"without": true,
}

// readPreferences applies gender and routine words to req. A routine word
// preceded by a negation in the same clause turns the routine off.
func readPreferences(text string, req *request) {
	for _, clause := range strings.FieldsFunc(strings.ToLower(text), isClauseBreak) {
		negated := false
		for _, word := range strings.FieldsFunc(clause, isSeparator) {
			if negations[word] {
				negated = true
				continue
			}
			// Single letters are too ambiguous in free text ("I'm").
			if len(word) < 3 {
				continue
			}
			if g, err := models.ParseGender(word); err == nil {
				req.gender = g
			}
			if strings.HasPrefix(word, "routine") || word == "plan" || word == "weekly" {
				req.routine = !negated
			}
		}
	}
}

func (h *A2AHandler) decodeImage(payload string) ([]byte, error) {
	img, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	if int64(len(img)) > h.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageBytes)
	}
	return img, nil
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z')
}

func isClauseBreak(r rune) bool {
	return strings.ContainsRune(".,;:!?\n", r)
}

func (h *A2AHandler) createTaskResult(taskID, contextID, state, text string, bundle *models.ResultBundle) TaskResult {
	result := TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.NewString(),
				TaskID:    &taskID,
				Parts: []MessagePart{
					TextPart(text),
				},
			},
		},
	}
	if bundle != nil {
		result.Artifacts = []Artifact{
			{
				ArtifactID: uuid.NewString(),
				Name:       "Body Shape Recommendations",
				Parts: []MessagePart{
					TextPart(text),
					DataPart(bundle),
				},
			},
		}
	}
	return result
}

func formatBundle(b *models.ResultBundle) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# Your Body Type: %s\n\n", b.BodyType)
	builder.WriteString(b.Description)
	builder.WriteString("\n")

	writeList(&builder, "Exercise Tips", b.Exercise.Tips)
	writeImages(&builder, b.Exercise.Images)
	writeList(&builder, "Yoga Suggestions", b.Yoga.Tips)
	writeImages(&builder, b.Yoga.Images)

	fmt.Fprintf(&builder, "\n**Outfit Suggestions (%s):**\n%s\n", b.Gender, b.Outfit.Tips)
	writeImages(&builder, b.Outfit.Images)
	writeList(&builder, "Posture Tips", b.Posture)

	if !b.Routine.IsEmpty() {
		builder.WriteString("\n**Weekly Routine:**\n")
		for i, day := range b.Routine.Days {
			fmt.Fprintf(&builder, "\n_%s_\n", models.DayLabel(i+1))
			fmt.Fprintf(&builder, "- Workout: %s\n", day.Workout)
			fmt.Fprintf(&builder, "- Yoga: %s\n", day.Yoga)
			fmt.Fprintf(&builder, "- Nutrition: %s\n", day.Nutrition)
			fmt.Fprintf(&builder, "- Hydration: %s\n", day.Hydration)
			fmt.Fprintf(&builder, "- Mental wellness: %s\n", day.MentalWellness)
			fmt.Fprintf(&builder, "- Sleep: %s\n", day.Sleep)
			fmt.Fprintf(&builder, "- Habit: %s\n", day.Habit)
		}
	}

	writeList(&builder, "Notes", b.Warnings)
	return builder.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s:**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", strings.TrimSpace(item))
	}
}

func writeImages(b *strings.Builder, images []string) {
	for _, img := range images {
		fmt.Fprintf(b, "![inspiration](%s)\n", img)
	}
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id string, result TaskResult) {
	log.Ctx(c.Request.Context()).Info().
		Str("task_id", result.ID).
		Str("state", result.Status.State).
		Msg("a2a task finished")
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id string, message string, code int) {
	log.Ctx(c.Request.Context()).Warn().Int("code", code).Str("message", message).Msg("a2a rpc error")
	// JSON-RPC errors are sent with 200 OK
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}
