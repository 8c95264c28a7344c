package logger

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"
)

// capture redirects the logger into a buffer for one test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	return &buf
}

func TestVerboseToggle(t *testing.T) {
	capture(t, false)

	if IsVerbose() {
		t.Error("expected verbose off")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose on after SetVerbose(true)")
	}
	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose off after SetVerbose(false)")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("resolved page %d", 3) }, "[DEBUG] resolved page 3\n"},
		{"info", func() { Info("session %s completed", "abc") }, "[INFO] session abc completed\n"},
		{"warn", func() { Warn("preset watch unavailable") }, "[WARN] preset watch unavailable\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuietByDefault(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	if buf.Len() > 0 {
		t.Errorf("expected silence when verbose is off, got %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Search Start")

	if got := buf.String(); got != "\n=== Search Start ===\n" {
		t.Errorf("unexpected section output: %q", got)
	}
}

func TestConcurrentUse(t *testing.T) {
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	SetOutput(io.Discard)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("batch %d", i)
			IsVerbose()
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
}
