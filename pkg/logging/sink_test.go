package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

// Test that if writer is nil, the sink defaults to os.Stderr.
func TestDefaultWriter(t *testing.T) {
	s := NewTextSink(nil, 1, true)
	if s.writer != os.Stderr {
		t.Errorf("expected default writer to be os.Stderr, got %v", s.writer)
	}
}

// Test that Enabled returns true only for levels up to minVerbosity.
func TestEnabled(t *testing.T) {
	s := NewTextSink(&bytes.Buffer{}, 1, true)
	if !s.Enabled(0) {
		t.Error("expected level 0 to be enabled")
	}
	if !s.Enabled(1) {
		t.Error("expected level 1 to be enabled")
	}
	if s.Enabled(2) {
		t.Error("expected level 2 to be disabled")
	}
}

// Test that Info writes a formatted log message with its key-value pairs.
func TestInfoLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewTextSink(buf, 1, true)
	s.Info(0, "Hello world", "key", "value")
	output := buf.String()

	if !strings.Contains(output, "Hello world") {
		t.Errorf("expected output to contain 'Hello world', got %q", output)
	}
	if !strings.Contains(output, "key: value") {
		t.Errorf("expected output to contain key-value pair, got %q", output)
	}
	if !strings.Contains(output, "[INFO]") {
		t.Errorf("expected output to contain [INFO] label, got %q", output)
	}
}

// Test that a message above minVerbosity is suppressed.
func TestInfoNotLoggedWhenDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewTextSink(buf, 0, true)
	s.Info(1, "This should not be logged", "foo", "bar")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// Test that Error includes the error value in the output.
func TestErrorLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewTextSink(buf, 0, true)
	s.Error(errors.New("boom"), "Something failed")
	output := buf.String()

	if !strings.Contains(output, "[ERROR]") {
		t.Errorf("expected output to contain [ERROR] label, got %q", output)
	}
	if !strings.Contains(output, "boom") {
		t.Errorf("expected output to contain the error, got %q", output)
	}
}

// Test that WithName prefixes messages with the logger name.
func TestWithName(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewTextSink(buf, 0, true)
	named := s.WithName("mst").(*TextSink)
	named.Info(0, "opened")
	if !strings.Contains(buf.String(), "[mst]") {
		t.Errorf("expected output to contain the logger name, got %q", buf.String())
	}
}
