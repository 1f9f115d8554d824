package scheduler

import (
	"testing"
	"time"

	"github.com/partitura/partitura/internal/domain"
)

// --- CalculateNextDue Tests ---

func TestCalculateNextDue_Interval(t *testing.T) {
	sched := &domain.Schedule{
		IntervalSec: 300,
		Timezone:    "UTC",
	}
	from := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)
	if !next.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, next)
	}
}

func TestCalculateNextDue_CronDaily(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 9 * * *",
		Timezone: "UTC",
	}

	tests := []struct {
		name     string
		from     time.Time
		expected time.Time
	}{
		{
			name:     "before nine same day",
			from:     time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "after nine next day",
			from:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := CalculateNextDue(sched, tt.from)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !next.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, next)
			}
		})
	}
}

func TestCalculateNextDue_CronBeatsInterval(t *testing.T) {
	// При заданном cron_expr интервал игнорируется
	sched := &domain.Schedule{
		CronExpr:    "0 9 * * *",
		IntervalSec: 60,
		Timezone:    "UTC",
	}
	from := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if !next.Equal(expected) {
		t.Errorf("cron should win over interval: expected %v, got %v", expected, next)
	}
}

func TestCalculateNextDue_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 9 * * *",
		Timezone: "Not/AZone",
	}
	from := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if !next.Equal(expected) {
		t.Errorf("expected UTC fallback %v, got %v", expected, next)
	}
}

func TestCalculateNextDue_NeitherCronNorInterval(t *testing.T) {
	sched := &domain.Schedule{Timezone: "UTC"}

	_, err := CalculateNextDue(sched, time.Now())
	if err == nil {
		t.Error("expected error for schedule without cron_expr and interval_sec")
	}
}

func TestCalculateNextDue_BadCronExpr(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "not a cron",
		Timezone: "UTC",
	}

	_, err := CalculateNextDue(sched, time.Now())
	if err == nil {
		t.Error("expected error for malformed cron expression")
	}
}

// --- ValidateCronExpr Tests ---

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 9 * * *", false},
		{"*/5 * * * *", false},
		{"0 0 1 1 *", false},
		{"", true},
		{"not a cron", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		err := ValidateCronExpr(tt.expr)
		if tt.wantErr && err == nil {
			t.Errorf("expr %q: expected error", tt.expr)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("expr %q: unexpected error: %v", tt.expr, err)
		}
	}
}
