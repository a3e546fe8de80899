package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPeriodDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same day", start, 1},
		{"ten day period", start.AddDate(0, 0, 9), 10},
		{"thirty day period", start.AddDate(0, 0, 29), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodDays(start, tt.end))
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name       string
		firstHalf  string
		secondHalf string
		want       repository.Trend
	}{
		{"clear growth", "50", "100", repository.TrendGrowing},
		{"clear decline", "100", "50", repository.TrendFalling},
		{"flat usage", "75", "75", repository.TrendStable},
		{"growth within tolerance", "100", "110", repository.TrendStable},
		{"decline within tolerance", "100", "90", repository.TrendStable},
		{"just above tolerance", "100", "110.01", repository.TrendGrowing},
		{"just below tolerance", "100", "89.99", repository.TrendFalling},
		{"no usage at all", "0", "0", repository.TrendStable},
		{"usage appears in second half", "0", "10", repository.TrendGrowing},
		{"usage stops in first half", "10", "0", repository.TrendFalling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTrend(d(tt.firstHalf), d(tt.secondHalf)))
		})
	}
}

func TestDaysOfCoverage(t *testing.T) {
	tests := []struct {
		name     string
		balance  string
		avgDaily string
		want     string
	}{
		{"regular usage", "100", "15", "6.7"},
		{"exact division", "60", "2", "30"},
		{"no usage yields sentinel", "100", "0", "999"},
		{"zero balance", "0", "5", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysOfCoverage(d(tt.balance), d(tt.avgDaily))
			assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestClassifyCoverage(t *testing.T) {
	tests := []struct {
		name string
		days string
		want repository.CoverageStatus
	}{
		{"critical under a week", "5", repository.CoverageCritical},
		{"just under a week", "6.9", repository.CoverageCritical},
		{"a week is warning", "7", repository.CoverageWarning},
		{"under a month", "29.9", repository.CoverageWarning},
		{"a month is fine", "30", repository.CoverageOK},
		{"plenty of stock", "120", repository.CoverageOK},
		{"sentinel means no usage, not danger", "999", repository.CoverageOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCoverage(d(tt.days)))
		})
	}
}
