package errors

import (
	"strings"
	"testing"
)

func TestValidateSurveyID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "6f1c0c7e-3a8e-4bde-9d7e-0c1b1c7b7f10", false},
		{"slug", "acme_depot-2", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"path traversal", "../etc", true},
		{"slash", "a/b", true},
		{"dot", "a.json", true},
		{"leading dash", "-a", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSurveyID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSurveyID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidID)
			}
		})
	}
}

func TestValidateElementID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"counter", "panel-3", false},
		{"uuid", "6f1c0c7e-3a8e-4bde-9d7e-0c1b1c7b7f10", false},

		{"empty", "", true},
		{"slash", "panel/3", true},
		{"backslash", "panel\\3", true},
		{"newline", "panel\n3", true},
		{"too long", strings.Repeat("x", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElementID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateElementID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("svg", "svg", "pdf"); err != nil {
		t.Errorf("svg: %v", err)
	}
	err := ValidateFormat("gif", "svg", "pdf")
	if !Is(err, ErrCodeInvalidFormat) {
		t.Fatalf("gif: %v", err)
	}
	if !strings.Contains(err.Error(), "svg, pdf") {
		t.Errorf("message does not list formats: %v", err)
	}
}
