package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BerylCAtieno/body-shape-agent/internal/a2a"
	"github.com/BerylCAtieno/body-shape-agent/internal/agent"
	"github.com/BerylCAtieno/body-shape-agent/internal/models"
)

type TestClient struct {
	baseURL string
	image   string
	gender  string
	routine bool
	client  *http.Client
}

func NewTestClient(baseURL, image, gender string, routine bool) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		image:   image,
		gender:  gender,
		routine: routine,
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the agent")
	testType := flag.String("test", "all", "Test type: all, health, agent-card, classify, evaluate, a2a, metrics")
	image := flag.String("image", "", "Front-facing photo for the evaluate and a2a tests")
	gender := flag.String("gender", "Female", "Gender for recommendations: Female or Male")
	routine := flag.Bool("routine", false, "Request the generated weekly routine")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	ui = newReporter(os.Stdout, !*noColor && os.Getenv("NO_COLOR") == "")

	if _, err := models.ParseGender(*gender); err != nil {
		ui.fail("%v", err)
		os.Exit(1)
	}

	client := NewTestClient(*baseURL, *image, *gender, *routine)

	ui.banner("Body Shape Agent smoke test")
	ui.info("Base URL: %s", *baseURL)

	tests := map[string]func() bool{
		"health":     client.testHealthCheck,
		"agent-card": client.testAgentCard,
		"classify":   client.testClassify,
		"evaluate":   client.testEvaluate,
		"a2a":        client.testA2A,
		"metrics":    client.testMetrics,
	}

	if *testType == "all" {
		client.runAllTests()
		return
	}
	fn, ok := tests[*testType]
	if !ok {
		ui.fail("Unknown test type: %s", *testType)
		ui.info("Available tests: all, health, agent-card, classify, evaluate, a2a, metrics")
		os.Exit(1)
	}
	if !fn() {
		os.Exit(1)
	}
}

type smokeTest struct {
	name string
	fn   func() bool
}

func (tc *TestClient) runAllTests() {
	tests := []smokeTest{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"Classify Landmarks", tc.testClassify},
	}
	if tc.image != "" {
		tests = append(tests,
			smokeTest{"Evaluate", tc.testEvaluate},
			smokeTest{"A2A Message", tc.testA2A},
		)
	} else {
		ui.warn("No -image given, skipping evaluate and a2a tests")
		fmt.Println()
	}
	tests = append(tests, smokeTest{"Metrics", tc.testMetrics})

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	ui.summary(passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func (tc *TestClient) testHealthCheck() bool {
	ui.step("Health Check")

	status, body, ok := tc.get("/health")
	if !ok {
		return false
	}
	if status != http.StatusOK {
		ui.fail("Expected status 200, got %d", status)
		return false
	}
	if string(body) != "OK" {
		ui.fail("Expected body 'OK', got '%s'", string(body))
		return false
	}

	ui.pass("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	ui.step("Agent Card")

	status, body, ok := tc.get("/.well-known/agent.json")
	if !ok {
		return false
	}
	if status != http.StatusOK {
		ui.fail("Expected status 200, got %d", status)
		ui.block("Response", string(body))
		return false
	}

	var card agent.Card
	if err := json.Unmarshal(body, &card); err != nil {
		ui.fail("Invalid JSON response: %v", err)
		return false
	}
	if card.Name == "" || card.URL == "" || len(card.Skills) == 0 {
		ui.fail("Agent card is missing name, url or skills")
		return false
	}

	ui.pass("Agent card is valid")
	ui.block("Response", string(body))
	return true
}

func (tc *TestClient) testClassify() bool {
	ui.step("Landmark Classification")

	// Wide hips, narrow shoulders.
	sample := models.PoseSample{
		LeftShoulder:  models.LandmarkPoint{X: 0.6, Y: 0.3, Visibility: 0.98},
		RightShoulder: models.LandmarkPoint{X: 0.4, Y: 0.3, Visibility: 0.97},
		LeftHip:       models.LandmarkPoint{X: 0.7, Y: 0.6, Visibility: 0.95},
		RightHip:      models.LandmarkPoint{X: 0.3, Y: 0.6, Visibility: 0.96},
	}
	payload, _ := json.Marshal(map[string]any{"landmarks": sample})

	status, body, ok := tc.post("/api/v1/classify", "application/json", payload)
	if !ok {
		return false
	}
	if status != http.StatusOK {
		ui.fail("Expected status 200, got %d", status)
		ui.block("Response", string(body))
		return false
	}

	var got struct {
		BodyType models.BodyType `json:"body_type"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		ui.fail("Invalid JSON response: %v", err)
		return false
	}
	if got.BodyType != models.Pear {
		ui.fail("Expected Pear, got %s", got.BodyType)
		return false
	}

	ui.pass("Classified as Pear")
	return true
}

func (tc *TestClient) testEvaluate() bool {
	ui.step("Evaluate")

	image, ok := tc.readImage()
	if !ok {
		return false
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filepath.Base(tc.image))
	if err != nil {
		ui.fail("%v", err)
		return false
	}
	_, _ = fw.Write(image)
	_ = w.WriteField("gender", tc.gender)
	_ = w.WriteField("routine", strconv.FormatBool(tc.routine))
	_ = w.Close()

	status, body, ok := tc.post("/api/v1/evaluate", w.FormDataContentType(), buf.Bytes())
	if !ok {
		return false
	}

	var out struct {
		Status  string               `json:"status"`
		Message string               `json:"message"`
		Result  *models.ResultBundle `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		ui.fail("Invalid JSON response (status %d): %v", status, err)
		return false
	}

	switch {
	case status == http.StatusUnprocessableEntity:
		ui.warn("%s", out.Message)
		ui.pass("Service answered with a terminal outcome")
		return true
	case status != http.StatusOK:
		ui.fail("Expected status 200, got %d", status)
		ui.block("Response", string(body))
		return false
	case out.Result == nil:
		ui.warn("%s", out.Message)
		ui.pass("Evaluation finished with status %s", out.Status)
		return true
	}

	ui.pass("Detected body type: %s", out.Result.BodyType)
	ui.block("Response", string(body))
	return true
}

func (tc *TestClient) testA2A() bool {
	ui.step("A2A Message")

	image, ok := tc.readImage()
	if !ok {
		return false
	}

	text := tc.gender
	if tc.routine {
		text += ", with a weekly routine"
	}
	request := a2a.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      fmt.Sprintf("test-%d", time.Now().Unix()),
		Method:  "message/send",
		Params: a2a.MessageParams{
			Message: a2a.A2AMessage{
				Kind: "message",
				Role: a2a.RoleUser,
				Parts: []a2a.MessagePart{
					{
						Kind: "file",
						File: &a2a.FileData{
							Name:     filepath.Base(tc.image),
							MimeType: http.DetectContentType(image),
							Bytes:    base64.StdEncoding.EncodeToString(image),
						},
					},
					a2a.TextPart(text),
				},
			},
			Configuration: a2a.MessageConfiguration{
				Blocking:            true,
				AcceptedOutputModes: []string{"text", "data"},
			},
		},
	}
	payload, _ := json.Marshal(request)

	status, body, ok := tc.post(agent.EndpointPath, "application/json", payload)
	if !ok {
		return false
	}
	if status != http.StatusOK {
		ui.fail("Expected status 200, got %d", status)
		ui.block("Response", string(body))
		return false
	}

	var response struct {
		Error  *a2a.JSONRPCError `json:"error"`
		Result *a2a.TaskResult   `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		ui.fail("Invalid JSON response: %v", err)
		return false
	}
	if response.Error != nil {
		ui.fail("Request returned error %d: %s", response.Error.Code, response.Error.Message)
		return false
	}
	if response.Result == nil {
		ui.fail("Invalid result format")
		return false
	}

	state := response.Result.Status.State
	if state == a2a.StateFailed {
		ui.fail("Task failed")
	} else {
		ui.pass("Task finished in state %s", state)
	}
	if msg := response.Result.Status.Message; msg != nil {
		for _, p := range msg.Parts {
			if p.Text != "" {
				ui.block("Agent Reply", p.Text)
			}
		}
	}
	return state != a2a.StateFailed
}

func (tc *TestClient) testMetrics() bool {
	ui.step("Metrics")

	status, body, ok := tc.get("/metrics.json")
	if !ok {
		return false
	}
	if status != http.StatusOK {
		ui.fail("Expected status 200, got %d", status)
		return false
	}
	var counters map[string]int64
	if err := json.Unmarshal(body, &counters); err != nil {
		ui.fail("Invalid JSON response: %v", err)
		return false
	}

	ui.pass("%d counters exported", len(counters))
	ui.block("Response", string(body))
	return true
}

func (tc *TestClient) readImage() ([]byte, bool) {
	if tc.image == "" {
		ui.fail("An image is required for this test. Use -image flag")
		return nil, false
	}
	data, err := os.ReadFile(tc.image)
	if err != nil {
		ui.fail("Read image: %v", err)
		return nil, false
	}
	ui.info("Image: %s (%d bytes)", tc.image, len(data))
	return data, true
}

func (tc *TestClient) get(path string) (int, []byte, bool) {
	url := tc.baseURL + path
	ui.info("GET %s", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		ui.fail("Request failed: %v", err)
		return 0, nil, false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, true
}

func (tc *TestClient) post(path, contentType string, payload []byte) (int, []byte, bool) {
	url := tc.baseURL + path
	ui.info("POST %s", url)

	resp, err := tc.client.Post(url, contentType, bytes.NewReader(payload))
	if err != nil {
		ui.fail("Request failed: %v", err)
		return 0, nil, false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, true
}
