package node

import (
	"testing"
	"time"
)

func TestHealth(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		age        time.Duration
		wantStatus string
	}{
		{"fresh heartbeat", 0, HealthOnline},
		{"at online boundary", 120 * time.Second, HealthOnline},
		{"just past online boundary", 121 * time.Second, HealthStale},
		{"at stale boundary", 900 * time.Second, HealthStale},
		{"just past stale boundary", 901 * time.Second, HealthOffline},
		{"long offline", 2 * time.Hour, HealthOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, age := Health(RawStatusOnline, now.Add(-tt.age), now)
			if status != tt.wantStatus {
				t.Errorf("Health() status = %q, want %q", status, tt.wantStatus)
			}
			if age != int(tt.age.Seconds()) {
				t.Errorf("Health() age = %d, want %d", age, int(tt.age.Seconds()))
			}
		})
	}
}

func TestHealth_RawStatusOnlineButStale(t *testing.T) {
	// A node that last reported ONLINE but hasn't heartbeat in a while is
	// still classified STALE/OFFLINE by heartbeat age alone — rawStatus
	// never overrides the age-derived classification.
	now := time.Now()
	status, _ := Health(RawStatusOnline, now.Add(-5*time.Minute), now)
	if status != HealthStale {
		t.Errorf("Health() = %q, want %q", status, HealthStale)
	}
}

func TestNormalizeOnsiteKey(t *testing.T) {
	tests := []struct {
		name string
		uid  string
		want string
	}{
		{"simple", "abc123", "ONSITE-ABC123"},
		{"lowercase normalized", "reg-07-till3", "ONSITE-REG-07-TILL3"},
		{"strips disallowed chars", "reg 07!till3", "ONSITE-REG07TILL3"},
		{"trims whitespace", "  pad-5  ", "ONSITE-PAD-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeOnsiteKey(tt.uid); got != tt.want {
				t.Errorf("NormalizeOnsiteKey(%q) = %q, want %q", tt.uid, got, tt.want)
			}
		})
	}
}

func TestNormalizeOnsiteKey_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "A"
	}
	got := NormalizeOnsiteKey(long)
	if len(got) != 64 {
		t.Errorf("len(NormalizeOnsiteKey(long)) = %d, want 64", len(got))
	}
	if got[:7] != "ONSITE-" {
		t.Errorf("NormalizeOnsiteKey(long) = %q, want ONSITE- prefix", got)
	}
}

func TestNormalizeOnsiteKey_Deterministic(t *testing.T) {
	a := NormalizeOnsiteKey("same-uid")
	b := NormalizeOnsiteKey("same-uid")
	if a != b {
		t.Error("NormalizeOnsiteKey should be deterministic")
	}
}
