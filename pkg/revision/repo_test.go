package revision

import "testing"

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		want    string
		wantErr bool
	}{
		{"lowercase normalized", "menu", "MENU", false},
		{"already upper", "PRICING", "PRICING", false},
		{"trims whitespace", "  menu  ", "MENU", false},
		{"allows colon underscore dash", "menu:v2_beta-1", "MENU:V2_BETA-1", false},
		{"empty rejected", "", "", true},
		{"whitespace only rejected", "   ", "", true},
		{"disallowed chars rejected", "menu!", "", true},
		{"spaces inside rejected", "menu item", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDomain(tt.domain)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeDomain(%q) expected error, got nil", tt.domain)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeDomain(%q) unexpected error: %v", tt.domain, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.domain, got, tt.want)
			}
		})
	}
}
