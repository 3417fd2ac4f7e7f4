package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporterLevels(t *testing.T) {
	tests := []struct {
		name  string
		write func(r *reporter)
		want  string
	}{
		{"info", func(r *reporter) { r.info("GET %s", "/health") }, "· GET /health\n"},
		{"pass", func(r *reporter) { r.pass("%d counters exported", 3) }, "✓ 3 counters exported\n"},
		{"warn", func(r *reporter) { r.warn("%s", "100% blurry") }, "! 100% blurry\n"},
		{"fail", func(r *reporter) { r.fail("Expected status 200, got %d", 502) }, "✗ Expected status 200, got 502\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.write(newReporter(&buf, false))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReporterColor(t *testing.T) {
	var buf bytes.Buffer
	newReporter(&buf, true).fail("boom")
	assert.Equal(t, "\033[31m✗ boom\033[0m\n", buf.String())
}

func TestReporterBlock(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json is indented", `{"a":1}`, "{\n  \"a\": 1\n}"},
		{"text is kept", "# Your Body Type: Pear\n", "# Your Body Type: Pear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newReporter(&buf, false).block("Response", tt.body)
			rule := strings.Repeat("─", ruleWidth)
			assert.Equal(t, "\nResponse\n"+rule+"\n"+tt.want+"\n"+rule+"\n", buf.String())
		})
	}
}

func TestReporterSummary(t *testing.T) {
	var buf bytes.Buffer
	newReporter(&buf, false).summary(4, 1)
	assert.Contains(t, buf.String(), "»» Summary")
	assert.Contains(t, buf.String(), "✗ 4 passed, 1 failed, 5 total")
}
