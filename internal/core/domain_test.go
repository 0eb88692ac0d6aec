package core

import (
	"testing"
	"time"
)

func TestTimeWindow_Contains(t *testing.T) {
	at := func(clock string) time.Time {
		parsed, err := time.Parse("15:04:05", clock)
		if err != nil {
			t.Fatalf("bad test clock %q: %v", clock, err)
		}
		return parsed
	}

	business := TimeWindow{Start: "08:00", End: "18:00"}
	overnight := TimeWindow{Start: "22:00", End: "06:00"}

	tests := []struct {
		name   string
		window TimeWindow
		clock  string
		want   bool
	}{
		{"Inside Business Hours", business, "12:30:00", true},
		{"Exactly At Start", business, "08:00:00", true},
		{"Exactly At End", business, "18:00:00", true},
		{"One Second Before Start", business, "07:59:59", false},
		{"One Second After End", business, "18:00:01", false},
		{"Evening Denied", business, "19:00:00", false},
		{"Overnight Before Midnight", overnight, "23:00:00", true},
		{"Overnight After Midnight", overnight, "02:00:00", true},
		{"Overnight At Start", overnight, "22:00:00", true},
		{"Overnight At End", overnight, "06:00:00", true},
		{"Overnight Midday Denied", overnight, "12:00:00", false},
		{"Overnight One Second After End", overnight, "06:00:01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Contains(at(tt.clock)); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.clock, got, tt.want)
			}
		})
	}
}

func TestTimeWindow_Validate(t *testing.T) {
	if err := (TimeWindow{Start: "08:00", End: "18:00"}).Validate(); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}
	if err := (TimeWindow{Start: "8am", End: "18:00"}).Validate(); err == nil {
		t.Error("expected error for malformed start")
	}
	if err := (TimeWindow{Start: "08:00", End: "25:99"}).Validate(); err == nil {
		t.Error("expected error for malformed end")
	}
}

func TestParseTrustLevel(t *testing.T) {
	level, err := ParseTrustLevel("VERIFIED")
	if err != nil {
		t.Fatalf("ParseTrustLevel() unexpected error: %v", err)
	}
	if level != TrustVerified {
		t.Errorf("ParseTrustLevel() = %v, want %v", level, TrustVerified)
	}

	if _, err := ParseTrustLevel("superuser"); err == nil {
		t.Error("expected error for unknown trust level")
	}
}

func TestTrustLevel_Ordering(t *testing.T) {
	ordered := []TrustLevel{TrustUntrusted, TrustBasic, TrustAuthenticated, TrustVerified, TrustPrivileged}
	for i := 1; i < len(ordered); i++ {
		if !(ordered[i-1] < ordered[i]) {
			t.Errorf("expected %s < %s", ordered[i-1], ordered[i])
		}
	}
}

func TestPolicy_AllowsPort(t *testing.T) {
	p := NetworkPolicy{AllowedPorts: []int{80, 443}}
	if !p.AllowsPort(443) {
		t.Error("expected port 443 to be allowed")
	}
	if p.AllowsPort(22) {
		t.Error("expected port 22 to be denied")
	}

	// empty set is an explicit deny-all
	denyAll := NetworkPolicy{AllowedPorts: nil}
	for _, port := range []int{1, 80, 443, 65535} {
		if denyAll.AllowsPort(port) {
			t.Errorf("deny-all policy allowed port %d", port)
		}
	}
}
