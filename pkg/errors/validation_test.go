package errors

import (
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "basemap.png", false},
		{"valid nested", "maps/world/basemap.png", false},
		{"valid with dots", "v1.2.3/tiles.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateSchemeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"classic", "classic", false},
		{"with dash", "my-scheme", false},
		{"with underscore", "my_scheme2", false},

		{"empty", "", true},
		{"uppercase", "Classic", true},
		{"leading dash", "-fire", true},
		{"path", "../fire", true},
		{"spaces", "my scheme", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchemeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchemeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHexColor(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"ffffff", false},
		{"#1A2b3C", false},
		{"000000", false},
		{"fff", true},
		{"gggggg", true},
		{"", true},
		{"##ffffff", true},
	}

	for _, tt := range tests {
		err := ValidateHexColor(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateHexColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateFormatName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"png", false},
		{"tiff", false},
		{"legend", false},
		{"", true},
		{"PNG", true},
		{"p n g", true},
		{"../png", true},
	}

	for _, tt := range tests {
		err := ValidateFormatName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormatName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormatName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidFormat)
		}
	}
}
