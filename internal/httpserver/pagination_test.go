package httpserver

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		def     int
		max     int
		want    int
		wantErr bool
	}{
		{"absent uses default", "", 100, 200, 100, false},
		{"within bounds", "?limit=50", 100, 200, 50, false},
		{"clamped to max", "?limit=500", 100, 200, 200, false},
		{"zero is invalid", "?limit=0", 100, 200, 0, true},
		{"negative is invalid", "?limit=-5", 100, 200, 0, true},
		{"non-numeric is invalid", "?limit=abc", 100, 200, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/commands"+tt.query, nil)
			got, err := ParseLimit(r, tt.def, tt.max)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got limit=%d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
