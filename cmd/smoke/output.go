package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

type level int

const (
	levelInfo level = iota
	levelPass
	levelWarn
	levelFail
)

type style struct {
	ansi string
	mark string
}

var styles = map[level]style{
	levelInfo: {"\033[36m", "·"},
	levelPass: {"\033[32m", "✓"},
	levelWarn: {"\033[33m", "!"},
	levelFail: {"\033[31m", "✗"},
}

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ruleWidth = 72
)

// reporter writes smoke test progress. Colors are dropped when color is
// false, which keeps the output stable for logs and tests.
type reporter struct {
	w     io.Writer
	color bool
}

var ui = newReporter(os.Stdout, true)

func newReporter(w io.Writer, color bool) *reporter {
	return &reporter{w: w, color: color}
}

func (r *reporter) paint(ansi, s string) string {
	if !r.color {
		return s
	}
	return ansi + s + ansiReset
}

func (r *reporter) logf(lvl level, format string, args ...any) {
	st := styles[lvl]
	fmt.Fprintln(r.w, r.paint(st.ansi, st.mark+" "+fmt.Sprintf(format, args...)))
}

func (r *reporter) info(format string, args ...any) { r.logf(levelInfo, format, args...) }
func (r *reporter) pass(format string, args ...any) { r.logf(levelPass, format, args...) }
func (r *reporter) warn(format string, args ...any) { r.logf(levelWarn, format, args...) }
func (r *reporter) fail(format string, args ...any) { r.logf(levelFail, format, args...) }

// banner opens a run or a summary.
func (r *reporter) banner(title string) {
	fmt.Fprintf(r.w, "\n%s\n\n", r.paint(ansiBold, "»» "+title))
}

// step opens one smoke test.
func (r *reporter) step(name string) {
	fmt.Fprintln(r.w, r.paint(ansiBold, name))
	fmt.Fprintln(r.w, strings.Repeat("·", ruleWidth))
}

// block prints a titled body between rules. JSON bodies are indented.
func (r *reporter) block(title, body string) {
	var pretty bytes.Buffer
	if json.Indent(&pretty, []byte(body), "", "  ") == nil {
		body = pretty.String()
	}
	rule := strings.Repeat("─", ruleWidth)
	fmt.Fprintf(r.w, "\n%s\n%s\n%s\n%s\n", r.paint(ansiBold, title), rule, strings.TrimRight(body, "\n"), rule)
}

func (r *reporter) summary(passed, failed int) {
	r.banner("Summary")
	lvl := levelPass
	if failed > 0 {
		lvl = levelFail
	}
	r.logf(lvl, "%d passed, %d failed, %d total", passed, failed, passed+failed)
}
