package validators

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		id          string
		expectValid bool
		expectError string
	}{
		// Valid cases
		{
			name:        "simple id",
			id:          "day1",
			expectValid: true,
		},
		{
			name:        "single character",
			id:          "a",
			expectValid: true,
		},
		{
			name:        "numeric photo service id",
			id:          "72157719876543210",
			expectValid: true,
		},
		{
			name:        "dots hyphens and underscores",
			id:          "devoxx-2025.keynote_room1",
			expectValid: true,
		},
		{
			name:        "surrounding whitespace is trimmed",
			id:          "  day2 ",
			expectValid: true,
		},

		// Invalid cases
		{
			name:        "empty",
			id:          "",
			expectError: "cannot be empty",
		},
		{
			name:        "only whitespace",
			id:          "   ",
			expectError: "cannot be empty",
		},
		{
			name:        "inner space",
			id:          "day 1",
			expectError: "is invalid",
		},
		{
			name:        "starts with dash",
			id:          "-keynote",
			expectError: "is invalid",
		},
		{
			name:        "ends with dot",
			id:          "keynote.",
			expectError: "is invalid",
		},
		{
			name:        "contains slash",
			id:          "day1/a",
			expectError: "is invalid",
		},
		{
			name:        "too long",
			id:          strings.Repeat("a", maxIdentifierLength+1),
			expectError: "exceeds maximum length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := ValidateIdentifier("collection", tt.id)

			if tt.expectValid {
				if err != nil {
					t.Errorf("expected valid id, got error: %v", err)
				}
				if result != strings.TrimSpace(tt.id) {
					t.Errorf("expected trimmed id %q, got %q", strings.TrimSpace(tt.id), result)
				}
				if !IsValidIdentifier(tt.id) {
					t.Errorf("IsValidIdentifier(%q) = false, want true", tt.id)
				}
				return
			}

			if err == nil {
				t.Errorf("expected error for id %q, got none", tt.id)
				return
			}
			if !strings.Contains(err.Error(), tt.expectError) {
				t.Errorf("expected error containing %q, got %q", tt.expectError, err.Error())
			}
			if !strings.Contains(err.Error(), "collection id") {
				t.Errorf("expected error to name the entity kind, got %q", err.Error())
			}
			if IsValidIdentifier(tt.id) {
				t.Errorf("IsValidIdentifier(%q) = true, want false", tt.id)
			}
		})
	}
}
