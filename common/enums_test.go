package common

import (
	"errors"
	"testing"
)

func TestParseMissingMarkerPolicy(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  MissingMarkerPolicy
		shouldErr bool
	}{
		{"ignore lowercase", "ignore", MissingMarkerPolicyIgnore, false},
		{"Warn mixed case", "Warn", MissingMarkerPolicyWarn, false},
		{"FAIL uppercase", "FAIL", MissingMarkerPolicyFail, false},
		{"invalid", "shout", MissingMarkerPolicy(0), true},
		{"empty", "", MissingMarkerPolicy(0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMissingMarkerPolicy(tt.input)
			if tt.shouldErr {
				if !errors.Is(err, ErrInvalidMissingMarkerPolicy) {
					t.Errorf("ParseMissingMarkerPolicy(%q) error = %v", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("ParseMissingMarkerPolicy(%q) = %v, %v, want %v", tt.input, got, err, tt.expected)
			}
		})
	}
}

func TestMustParseMissingMarkerPolicy(t *testing.T) {
	if got := MustParseMissingMarkerPolicy("warn"); got != MissingMarkerPolicyWarn {
		t.Errorf("MustParseMissingMarkerPolicy(\"warn\") = %v", got)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseMissingMarkerPolicy should have panicked")
		}
	}()
	MustParseMissingMarkerPolicy("loud")
}

func TestMissingMarkerPolicy_Text(t *testing.T) {
	if s := MissingMarkerPolicy(7).String(); s != "MissingMarkerPolicy(7)" || MissingMarkerPolicy(7).IsValid() {
		t.Errorf("out of range policy = %s", s)
	}

	var p MissingMarkerPolicy
	if err := p.UnmarshalText([]byte("warn")); err != nil || p != MissingMarkerPolicyWarn {
		t.Errorf("UnmarshalText() = %v, %v", p, err)
	}
	if err := p.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText() accepted unknown policy")
	}
	if text, _ := MissingMarkerPolicyFail.MarshalText(); string(text) != "fail" {
		t.Errorf("MarshalText() = %s", text)
	}
}
