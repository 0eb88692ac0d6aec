package reputation

import (
	"context"
	"testing"
)

func TestStaticSource_Score(t *testing.T) {
	src, err := NewStaticSource(map[string]any{
		"scores": map[string]any{
			"203.0.113.0/24": 0.9,
			"10.0.0.0/8":     0.1,
		},
		"default": 0.5,
	})
	if err != nil {
		t.Fatalf("NewStaticSource() unexpected error: %v", err)
	}

	tests := []struct {
		ip   string
		want float64
	}{
		{"203.0.113.7", 0.9},
		{"10.1.2.3", 0.1},
		{"192.0.2.1", 0.5},
	}
	for _, tt := range tests {
		got, err := src.Score(context.Background(), tt.ip)
		if err != nil {
			t.Fatalf("Score(%s) unexpected error: %v", tt.ip, err)
		}
		if got != tt.want {
			t.Errorf("Score(%s) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if _, err := src.Score(context.Background(), "not-an-ip"); err == nil {
		t.Error("expected error for unparseable address")
	}
}

func TestNewStaticSource_RejectsBadInput(t *testing.T) {
	if _, err := NewStaticSource(map[string]any{
		"scores": map[string]any{"banana": 0.5},
	}); err == nil {
		t.Error("expected error for bad CIDR")
	}
	if _, err := NewStaticSource(map[string]any{
		"scores": map[string]any{"10.0.0.0/8": 1.5},
	}); err == nil {
		t.Error("expected error for out-of-range score")
	}
}

func TestBuild(t *testing.T) {
	src, err := Build(Config{})
	if err != nil || src != nil {
		t.Errorf("Build(empty) = (%v, %v), want (nil, nil)", src, err)
	}
	if _, err := Build(Config{Type: "bogus"}); err == nil {
		t.Error("expected error for unknown source type")
	}
	if _, err := Build(Config{Type: "stub", Options: map[string]any{"score": 0.2}}); err != nil {
		t.Errorf("Build(stub) unexpected error: %v", err)
	}
}
