package logger

import (
	"bytes"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	prevOut := SetOutput(buf)
	prevLevel := GetLogLevel()
	SetLogLevel(level)
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetLogLevel(prevLevel)
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, LogLevelWarn)

	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below WARN should be dropped, got %q", out)
	}
	if !strings.Contains(out, "WARN: warn 3") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "ERROR: error 4") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestSilentDropsEverything(t *testing.T) {
	buf := captureOutput(t, LogLevelSilent)

	Error("should not appear")

	if buf.Len() != 0 {
		t.Errorf("silent logger wrote %q", buf.String())
	}
}

func TestLongArgumentsAreTruncated(t *testing.T) {
	buf := captureOutput(t, LogLevelDebug)

	payload := []byte(strings.Repeat("s", 100))
	Debug("payload=%s", payload)

	out := buf.String()
	if strings.Contains(out, strings.Repeat("73", 100)) {
		t.Error("full payload should not be logged")
	}
	if !strings.Contains(out, "(100 bytes)") {
		t.Errorf("truncated argument should report its size, got %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"silent", LogLevelSilent, false},
		{"error", LogLevelError, false},
		{"WARN", LogLevelWarn, false},
		{"Info", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{"verbose", LogLevelSilent, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStringArgumentsAreKept(t *testing.T) {
	buf := captureOutput(t, LogLevelInfo)

	path := "/a/rather/long/directory/name/that/keeps/going/image.png"
	Info("Wrote %s", path)

	if !strings.Contains(buf.String(), path) {
		t.Errorf("path should be logged in full, got %q", buf.String())
	}
}
