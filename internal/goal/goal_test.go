package goal

import (
	"testing"
	"time"
)

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{name: "daily", in: Input{Name: "Sleep", Type: TypeDaily, TargetHours: 8}},
		{name: "weekly", in: Input{Name: "Exercise", Type: TypeWeekly, TargetHours: 5}},
		{name: "monthly", in: Input{Name: "Reading", Type: TypeMonthly, TargetHours: 20}, wantErr: false},
		{name: "blank name", in: Input{Name: " ", Type: TypeDaily, TargetHours: 1}, wantErr: true},
		{name: "bad type", in: Input{Name: "Sleep", Type: "yearly", TargetHours: 1}, wantErr: true},
		{name: "zero target", in: Input{Name: "Sleep", Type: TypeDaily}, wantErr: true},
		{name: "negative target", in: Input{Name: "Sleep", Type: TypeDaily, TargetHours: -1}, wantErr: true},
		{name: "target too large", in: Input{Name: "Sleep", Type: TypeDaily, TargetHours: 25}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInputGoalDefaultsActive(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	g := Input{Name: "Sleep", Type: TypeDaily, TargetHours: 8}.Goal("goal-1", "user-1", now)
	if !g.Active {
		t.Error("Active = false, goals should default to active")
	}

	inactive := false
	g = Input{Name: "Sleep", Type: TypeDaily, TargetHours: 8, Active: &inactive}.Goal("goal-2", "user-1", now)
	if g.Active {
		t.Error("Active = true despite explicit false")
	}
}
