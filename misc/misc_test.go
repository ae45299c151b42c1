package misc

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func TestLerpFloat64(t *testing.T) {
	tests := []struct {
		name     string
		v1       float64
		v2       float64
		fraction float64
		want     float64
	}{
		{name: "start", v1: 2, v2: 10, fraction: 0, want: 2},
		{name: "end", v1: 2, v2: 10, fraction: 1, want: 10},
		{name: "midpoint", v1: 2, v2: 10, fraction: 0.5, want: 6},
		{name: "descending", v1: 10, v2: 2, fraction: 0.25, want: 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := LerpFloat64(test.v1, test.v2, test.fraction); got != test.want {
				t.Errorf("LerpFloat64(%g, %g, %g) = %g, want %g", test.v1, test.v2, test.fraction, got, test.want)
			}
		})
	}
}

func TestEaseOutExpo(t *testing.T) {
	if got := EaseOutExpo(0); got != 0 {
		t.Errorf("EaseOutExpo(0) = %g, want 0", got)
	}
	if got := EaseOutExpo(1); got != 1 {
		t.Errorf("EaseOutExpo(1) = %g, want 1", got)
	}
	if got := EaseOutExpo(2); got != 1 {
		t.Errorf("EaseOutExpo(2) = %g, want 1", got)
	}

	previous := 0.0
	for i := 1; i <= 10; i++ {
		current := EaseOutExpo(float64(i) / 10)
		if current <= previous {
			t.Fatalf("EaseOutExpo is not increasing at %g", float64(i)/10)
		}
		previous = current
	}
}

func TestEaseInExpo(t *testing.T) {
	if got := EaseInExpo(0); got != 0 {
		t.Errorf("EaseInExpo(0) = %g, want 0", got)
	}
	if got := EaseInExpo(-1); got != 0 {
		t.Errorf("EaseInExpo(-1) = %g, want 0", got)
	}
	if got := EaseInExpo(1); got != 1 {
		t.Errorf("EaseInExpo(1) = %g, want 1", got)
	}
}

func TestFileRoundTrip(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "frame.bin")
	contents := []byte("not actually a frame")

	written, err := WriteFile(fileName, contents)
	if err != nil {
		t.Fatal(err)
	}
	if written != len(contents) {
		t.Errorf("WriteFile() wrote %d bytes, want %d", written, len(contents))
	}

	readBack, err := ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBack, contents) {
		t.Errorf("ReadFile() = %q, want %q", readBack, contents)
	}
}

func TestFileRejectsEmptyName(t *testing.T) {
	if _, err := ReadFile(""); err == nil {
		t.Error("ReadFile(\"\") = nil, want an error")
	}
	if _, err := WriteFile("", nil); err == nil {
		t.Error("WriteFile(\"\") = nil, want an error")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("ReadFile() = nil for a missing file, want an error")
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrInvalidConfiguration, ErrFilenameOverflow, ErrWorkerFailure, ErrSinkFailure}
	for i, kind := range kinds {
		wrapped := fmt.Errorf("context: %w", kind)
		if !errors.Is(wrapped, kind) {
			t.Errorf("wrapped error lost its kind %v", kind)
		}
		for j, other := range kinds {
			if i != j && errors.Is(wrapped, other) {
				t.Errorf("error kind %v matches unrelated kind %v", kind, other)
			}
		}
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{severity: Fatal, want: "Fatal"},
		{severity: Error, want: "Error"},
		{severity: Warning, want: "Warning"},
		{severity: Info, want: "Info"},
		{severity: Debug, want: "Debug"},
	}

	for _, test := range tests {
		if got := test.severity.String(); got != test.want {
			t.Errorf("Severity(%d).String() = %q, want %q", test.severity, got, test.want)
		}
	}
}
