package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    Mode
		verbose bool
	}{
		{"normal mode", ModeNormal, false},
		{"quiet mode", ModeQuiet, false},
		{"json mode", ModeJSON, false},
		{"verbose normal", ModeNormal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(tt.mode, tt.verbose)
			if out == nil {
				t.Fatal("expected non-nil output")
			}
			if out.mode != tt.mode {
				t.Errorf("mode mismatch: got %v, want %v", out.mode, tt.mode)
			}
			if out.verbose != tt.verbose {
				t.Errorf("verbose mismatch: got %v, want %v", out.verbose, tt.verbose)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	t.Parallel()

	t.Run("normal mode prints output", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, false)
		out.SetWriter(&buf)

		out.Print("Hello %s", "World")

		if !strings.Contains(buf.String(), "Hello World") {
			t.Errorf("expected 'Hello World', got %q", buf.String())
		}
	})

	t.Run("quiet mode suppresses output", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeQuiet, false)
		out.SetWriter(&buf)

		out.Print("This should not appear")

		if buf.Len() != 0 {
			t.Errorf("expected no output in quiet mode, got %q", buf.String())
		}
	})

	t.Run("json mode suppresses print output", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeJSON, false)
		out.SetWriter(&buf)

		out.Print("This should not appear")

		if buf.Len() != 0 {
			t.Errorf("expected no output in JSON mode, got %q", buf.String())
		}
	})
}

func TestPrintln(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := New(ModeNormal, false)
	out.SetWriter(&buf)

	out.Println("Test", "message")

	if !strings.Contains(buf.String(), "Test message") {
		t.Errorf("expected 'Test message', got %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected newline at end")
	}
}

func TestVerbose(t *testing.T) {
	t.Parallel()

	t.Run("verbose enabled shows output", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, true)
		out.SetWriter(&buf)

		out.Verbose("Debug info: %d", 42)

		if !strings.Contains(buf.String(), "Debug info: 42") {
			t.Errorf("expected verbose output, got %q", buf.String())
		}
	})

	t.Run("verbose disabled suppresses output", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, false)
		out.SetWriter(&buf)

		out.Verbose("Debug info")

		if buf.Len() != 0 {
			t.Errorf("expected no output when verbose disabled, got %q", buf.String())
		}
	})

	t.Run("verbose suppressed in quiet mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeQuiet, true)
		out.SetWriter(&buf)

		out.Verbose("Debug info")

		if buf.Len() != 0 {
			t.Errorf("expected no output in quiet mode, got %q", buf.String())
		}
	})
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("error always shows in normal mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, false)
		out.SetErrWriter(&buf)

		out.Error("Something went wrong: %v", "disk full")

		if !strings.Contains(buf.String(), "Error:") {
			t.Error("expected 'Error:' prefix")
		}
		if !strings.Contains(buf.String(), "disk full") {
			t.Error("expected error message")
		}
	})

	t.Run("error shows in quiet mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeQuiet, false)
		out.SetErrWriter(&buf)

		out.Error("Critical error")

		if !strings.Contains(buf.String(), "Critical error") {
			t.Errorf("expected error in quiet mode, got %q", buf.String())
		}
	})

	t.Run("error suppressed in json mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeJSON, false)
		out.SetErrWriter(&buf)

		out.Error("This should not appear")

		if buf.Len() != 0 {
			t.Errorf("expected no error output in JSON mode, got %q", buf.String())
		}
	})
}

func TestWarning(t *testing.T) {
	t.Parallel()

	t.Run("warning shows in normal mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, false)
		out.SetWriter(&buf)

		out.Warning("Proceed with caution")

		if !strings.Contains(buf.String(), "Warning:") {
			t.Error("expected 'Warning:' prefix")
		}
	})

	t.Run("warning suppressed in quiet mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeQuiet, false)
		out.SetWriter(&buf)

		out.Warning("This should not appear")

		if buf.Len() != 0 {
			t.Errorf("expected no warning in quiet mode, got %q", buf.String())
		}
	})
}

func TestSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := New(ModeNormal, false)
	out.SetWriter(&buf)

	out.Success("Operation completed!")

	if !strings.Contains(buf.String(), "Operation completed!") {
		t.Errorf("expected success message, got %q", buf.String())
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := New(ModeNormal, false)
	out.SetWriter(&buf)

	out.Info("FYI: %d files", 10)

	if !strings.Contains(buf.String(), "FYI: 10 files") {
		t.Errorf("expected info message, got %q", buf.String())
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("outputs JSON in json mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeJSON, false)
		out.SetWriter(&buf)

		data := map[string]any{
			"success": true,
			"count":   42,
		}

		if err := out.JSON(data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// verify it's valid JSON
		var parsed map[string]any
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Errorf("output is not valid JSON: %v", err)
		}

		if parsed["success"] != true {
			t.Error("expected success=true")
		}
	})

	t.Run("no output in normal mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, false)
		out.SetWriter(&buf)

		data := map[string]string{"key": "value"}
		_ = out.JSON(data)

		if buf.Len() != 0 {
			t.Errorf("expected no JSON output in normal mode, got %q", buf.String())
		}
	})

	t.Run("pretty prints JSON", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeJSON, false)
		out.SetWriter(&buf)

		data := map[string]string{"key": "value"}
		_ = out.JSON(data)

		// should have indentation
		if !strings.Contains(buf.String(), "  ") {
			t.Error("expected indented JSON")
		}
	})
}

func TestSink(t *testing.T) {
	t.Parallel()

	t.Run("routes lifecycle lines with newline", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeNormal, false)
		out.SetWriter(&buf)

		sink := out.Sink()
		sink("TempDir create '/tmp/temp_dir_1_10000'")

		if !strings.Contains(buf.String(), "TempDir create '/tmp/temp_dir_1_10000'") {
			t.Errorf("expected lifecycle line, got %q", buf.String())
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected newline at end")
		}
	})

	t.Run("suppressed in quiet mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeQuiet, false)
		out.SetWriter(&buf)

		out.Sink()("TempDir create '/tmp/x'")

		if buf.Len() != 0 {
			t.Errorf("expected no output in quiet mode, got %q", buf.String())
		}
	})

	t.Run("suppressed in json mode", func(t *testing.T) {
		var buf bytes.Buffer
		out := New(ModeJSON, false)
		out.SetWriter(&buf)

		out.Sink()("TempDir create '/tmp/x'")

		if buf.Len() != 0 {
			t.Errorf("expected no output in JSON mode, got %q", buf.String())
		}
	})
}
