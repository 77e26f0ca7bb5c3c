package domain

import (
	"testing"
	"time"
)

func TestDelaysValidate(t *testing.T) {
	tests := []struct {
		name    string
		delays  Delays
		maxLen  int
		wantErr bool
	}{
		{"single position", Delays{1: 0}, 4, false},
		{"full sequence", Delays{1: 0, 2: 3, 3: 7, 4: 14}, 4, false},
		{"equal offsets allowed", Delays{1: 2, 2: 2}, 4, false},
		{"empty", Delays{}, 4, true},
		{"missing position 1", Delays{2: 3}, 4, true},
		{"position zero", Delays{0: 0, 1: 0}, 4, true},
		{"position beyond max", Delays{1: 0, 5: 10}, 4, true},
		{"position beyond shortened max", Delays{1: 0, 3: 5}, 2, true},
		{"negative offset", Delays{1: -1}, 4, true},
		{"decreasing offsets", Delays{1: 5, 2: 2}, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.delays.Validate(tt.maxLen)
			if tt.wantErr && err == nil {
				t.Fatalf("Validate(%v, %d) = nil, want error", tt.delays, tt.maxLen)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate(%v, %d) unexpected error: %v", tt.delays, tt.maxLen, err)
			}
		})
	}
}

func TestScheduledSendTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	campaign := &Campaign{
		Delays:         Delays{1: 0, 2: 3, 3: 7},
		ScheduledStart: &start,
	}

	tests := []struct {
		position int
		want     time.Time
	}{
		{1, start},
		{2, start.AddDate(0, 0, 3)},
		{3, start.AddDate(0, 0, 7)},
	}
	for _, tt := range tests {
		got, err := campaign.ScheduledSendTime(tt.position)
		if err != nil {
			t.Fatalf("ScheduledSendTime(%d) unexpected error: %v", tt.position, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ScheduledSendTime(%d) = %v, want %v", tt.position, got, tt.want)
		}
	}

	if _, err := campaign.ScheduledSendTime(4); err == nil {
		t.Error("expected error for position without a delay")
	}

	campaign.ScheduledStart = nil
	if _, err := campaign.ScheduledSendTime(1); err == nil {
		t.Error("expected error when scheduled start is unset")
	}
}

func TestContextValidate(t *testing.T) {
	if err := (Context{Tone: ToneCasual}).Validate(); err != nil {
		t.Fatalf("valid tone rejected: %v", err)
	}
	if err := (Context{}).Validate(); err != nil {
		t.Fatalf("empty tone rejected: %v", err)
	}
	if err := (Context{Tone: "friendly"}).Validate(); err == nil {
		t.Error("expected error for unknown tone")
	}
	// Tones are case sensitive.
	if err := (Context{Tone: "professional"}).Validate(); err == nil {
		t.Error("expected error for lowercase tone")
	}
}

func TestIsMutable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusDraft, true},
		{StatusActive, false},
		{StatusInactive, false},
	}
	for _, tt := range tests {
		c := &Campaign{Status: tt.status}
		if got := c.IsMutable(); got != tt.want {
			t.Errorf("IsMutable() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}
