package scheduler

import (
	"testing"
	"time"

	"groupfarm/internal/storage"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	lim := Limits{MaxGroups: 450, MaxAge: 10 * 24 * time.Hour, Cooldown: 30 * time.Minute}

	tests := []struct {
		name string
		acc  storage.Account
		want Decision
	}{
		{
			name: "fresh account",
			acc:  storage.Account{CreatedGroups: 0},
			want: Eligible,
		},
		{
			name: "quota reached",
			acc:  storage.Account{CreatedGroups: 450},
			want: QuotaExhausted,
		},
		{
			name: "quota overshoot",
			acc:  storage.Account{CreatedGroups: 451},
			want: QuotaExhausted,
		},
		{
			name: "over age",
			acc: storage.Account{
				CreatedGroups:   5,
				FirstActivityAt: timePtr(now.Add(-lim.MaxAge - time.Second)),
			},
			want: AgeExceeded,
		},
		{
			name: "age exactly at limit is fine",
			acc: storage.Account{
				CreatedGroups:   5,
				FirstActivityAt: timePtr(now.Add(-lim.MaxAge)),
			},
			want: Eligible,
		},
		{
			name: "cooling down",
			acc: storage.Account{
				CreatedGroups: 5,
				LastGroupAt:   timePtr(now.Add(-10 * time.Minute)),
			},
			want: CoolingDown,
		},
		{
			name: "cooldown elapsed",
			acc: storage.Account{
				CreatedGroups: 5,
				LastGroupAt:   timePtr(now.Add(-30 * time.Minute)),
			},
			want: Eligible,
		},
		{
			// Precedence: quota is checked before age, so an account that
			// is both stays merely skipped and keeps its Active state.
			name: "quota wins over age",
			acc: storage.Account{
				CreatedGroups:   450,
				FirstActivityAt: timePtr(now.Add(-lim.MaxAge - time.Hour)),
			},
			want: QuotaExhausted,
		},
		{
			name: "age wins over cooldown",
			acc: storage.Account{
				CreatedGroups:   5,
				FirstActivityAt: timePtr(now.Add(-lim.MaxAge - time.Hour)),
				LastGroupAt:     timePtr(now.Add(-time.Minute)),
			},
			want: AgeExceeded,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.acc, lim, now); got != tt.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
