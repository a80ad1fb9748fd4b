package devicelink

import (
	"testing"

	"github.com/lumen-optics/eyecal/internal/eyewear"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"READ,mono,0.5,600", EventTypeReading},
		{"READ,left,0.45,620.5", EventTypeReading},
		{"OK", EventTypeAck},
		{"OK,MODE,RD", EventTypeAck},
		{"ERR,BADCMD", EventTypeError},
		{"hello", EventTypeUnknown},
		{"", EventTypeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyLine(tt.line); got != tt.want {
			t.Errorf("ClassifyLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseReading(t *testing.T) {
	got, err := ParseReading("READ,left,0.45,620.5")
	if err != nil {
		t.Fatalf("ParseReading: %v", err)
	}
	want := eyewear.Reading{Eye: eyewear.EyeLeft, Scale: 0.45, Range: 620.5}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Trailing newline from the scanner is tolerated.
	if _, err := ParseReading("READ,mono,0.5,600\n"); err != nil {
		t.Errorf("trailing newline: %v", err)
	}
}

func TestParseReadingRejects(t *testing.T) {
	bad := []string{
		"",
		"READ",
		"READ,mono,0.5",
		"READ,mono,0.5,600,extra",
		"WRITE,mono,0.5,600",
		"READ,both,0.5,600",
		"READ,mono,abc,600",
		"READ,mono,0.5,abc",
		"READ,mono,0,600",    // scale out of range
		"READ,mono,1.5,600",  // scale out of range
		"READ,mono,0.5,-600", // negative range
	}
	for _, line := range bad {
		if _, err := ParseReading(line); err == nil {
			t.Errorf("ParseReading(%q) = nil error, want failure", line)
		}
	}
}
