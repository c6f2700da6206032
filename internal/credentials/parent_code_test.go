package credentials

import (
	"strings"
	"testing"
)

func TestGenerateParentCode(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		unique     bool
	}{
		{
			name:       "generates code of correct length and alphabet",
			iterations: 200,
		},
		{
			name:       "generates unique codes",
			iterations: 50,
			unique:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				code, err := GenerateParentCode()
				if err != nil {
					t.Fatalf("GenerateParentCode() error = %v", err)
				}

				if len(code) != ParentCodeLength {
					t.Errorf("code length %d, want %d", len(code), ParentCodeLength)
				}
				for _, c := range code {
					if !strings.ContainsRune(parentCodeChars, c) {
						t.Errorf("code %q contains unexpected character %q", code, c)
					}
				}

				if tt.unique {
					if seen[code] {
						t.Errorf("duplicate code generated: %s", code)
					}
					seen[code] = true
				}
			}
		})
	}
}

func TestRandomString(t *testing.T) {
	s, err := randomString("x", 5)
	if err != nil {
		t.Fatalf("randomString() error = %v", err)
	}
	if s != "xxxxx" {
		t.Errorf("randomString() = %q, want xxxxx", s)
	}
}
