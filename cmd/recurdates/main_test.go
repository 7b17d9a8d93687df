package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runMain(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunMain_Text(t *testing.T) {
	code, out, errOut := runCLI("-start", "2024-01-31", "-type", "monthly", "-count", "5")
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Equal(t, "2024-01-31\n2024-03-31\n2024-05-31\n2024-07-31\n2024-08-31\n", out)
	assert.Empty(t, errOut)
}

func TestRunMain_Until(t *testing.T) {
	code, out, _ := runCLI("-start", "2024-02-29", "-type", "yearly", "-until", "2032-12-31")
	require.Equal(t, exitCodeSuccess, code)
	assert.Equal(t, "2024-02-29\n2028-02-29\n2032-02-29\n", out)
}

func TestRunMain_Formats(t *testing.T) {
	code, out, _ := runCLI("-start", "2024-01-01", "-count", "2", "-format", "ics", "-title", "Standup")
	require.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Standup")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))

	code, out, _ = runCLI("-start", "2024-01-01", "-type", "weekly", "-count", "3", "-format", "master")
	require.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;INTERVAL=1;COUNT=3")

	code, out, _ = runCLI("-start", "2024-01-01", "-count", "1", "-format", "XML")
	require.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, "<occurrences")
	assert.Contains(t, out, ">2024-01-01</occurrence>")

	code, out, _ = runCLI("-start", "2024-01-01", "-count", "1", "-format", "json")
	require.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, `"date": "2024-01-01"`)
}

func TestRunMain_RRule(t *testing.T) {
	code, out, errOut := runCLI("-start", "2024-01-31", "-rrule", "RRULE:FREQ=MONTHLY;COUNT=4")
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Equal(t, "2024-01-31\n2024-03-31\n2024-05-31\n2024-07-31\n", out)

	code, out, errOut = runCLI("-start", "2024-02-29", "-rrule", "FREQ=YEARLY;UNTIL=20321231", "-cache")
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Equal(t, "2024-02-29\n2028-02-29\n2032-02-29\n", out)

	code, out, _ = runCLI("-start", "2024-01-01", "-rrule", "FREQ=DAILY;COUNT=0")
	require.Equal(t, exitCodeSuccess, code)
	assert.Empty(t, out)
}

func TestRunMain_ICS(t *testing.T) {
	code, master, errOut := runCLI("-start", "2024-01-31", "-type", "monthly", "-count", "3",
		"-title", "Rent", "-format", "master")
	require.Equal(t, exitCodeSuccess, code, errOut)

	path := filepath.Join(t.TempDir(), "rent.ics")
	require.NoError(t, os.WriteFile(path, []byte(master), 0o600))

	code, out, errOut := runCLI("-ics", path)
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Equal(t, "2024-01-31\n2024-03-31\n2024-05-31\n", out)

	code, out, errOut = runCLI("-ics", path, "-format", "ics")
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Contains(t, out, "SUMMARY:Rent")

	code, _, errOut = runCLI("-ics", filepath.Join(t.TempDir(), "missing.ics"))
	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, errOut, "failed to open")
}

func TestRunMain_Warnings(t *testing.T) {
	code, out, errOut := runCLI("-start", "1900-01-01", "-until", "2024-12-31")
	require.Equal(t, exitCodeSuccess, code)
	assert.Equal(t, 1000, strings.Count(out, "\n"))
	assert.Contains(t, errOut, "range exceeds 100 years")
	assert.Contains(t, errOut, "recurrence stopped at the maximum number of occurrences")

	code, out, errOut = runCLI("-start", "2024-01-01", "-count", "500", "-strict")
	require.Equal(t, exitCodeSuccess, code)
	assert.Equal(t, 100, strings.Count(out, "\n"))
	assert.Contains(t, errOut, "recurrence stopped")
}

func TestRunMain_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing start", []string{"-until", "2024-01-01"}, "start date required"},
		{"inverted", []string{"-start", "2024-12-31", "-until", "2024-01-01"}, "start must be before or equal to end"},
		{"bad end", []string{"-start", "2023-01-01", "-until", "2023-02-29"}, "invalid end date format"},
		{"zero interval", []string{"-start", "2024-01-01", "-interval", "0"}, "repeat interval must be at least 1"},
		{"bad type", []string{"-start", "2024-01-01", "-type", "hourly"}, "unsupported repeat type"},
		{"korean", []string{"-start", "2024-12-31", "-until", "2024-01-01", "-lang", "ko"}, "시작일은 종료일보다 이전이어야 합니다"},
		{"bad format", []string{"-start", "2024-01-01", "-format", "yaml"}, `unknown output format "yaml"`},
		{"stray args", []string{"-start", "2024-01-01", "extra"}, "unexpected arguments: extra"},
		{"bad rrule interval", []string{"-start", "2024-01-01", "-rrule", "FREQ=DAILY;INTERVAL=0;COUNT=3"}, "repeat interval must be at least 1"},
		{"rrule with count", []string{"-start", "2024-01-01", "-rrule", "FREQ=DAILY", "-count", "3"}, "-rrule cannot be combined"},
		{"rrule with ics", []string{"-rrule", "FREQ=DAILY", "-ics", "x.ics"}, "mutually exclusive"},
		{"ics with start", []string{"-ics", "x.ics", "-start", "2024-01-01"}, "-ics cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(tt.args...)
			assert.Equal(t, exitCodeError, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestRunMain_Version(t *testing.T) {
	code, out, _ := runCLI("-version")
	assert.Equal(t, exitCodeSuccess, code)
	assert.True(t, strings.HasPrefix(out, "recurdates version dev"))

	code, _, _ = runCLI("-h")
	assert.Equal(t, exitCodeSuccess, code)
}

func TestRunMain_DebugLog(t *testing.T) {
	code, _, errOut := runCLI("-start", "2024-01-01", "-count", "2", "-debug", "-lang", "ko")
	require.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, errOut, `msg="series ready"`)
	assert.Contains(t, errOut, "events=2")
	assert.NotContains(t, errOut, "반복 일정이 추가되었습니다")
}
