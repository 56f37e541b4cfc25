package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rentradar/scraper-api/internal/model"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name     string
		figure   string
		expected int64
	}{
		{"plain", "1728", 172800},
		{"thousands separator", "1,728", 172800},
		{"with decimals", "1728.50", 172850},
		{"separator and decimals", "2,350.25", 235025},
		{"garbage", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCents(tt.figure))
		})
	}
}

func TestMinRentInText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int64
	}{
		{"single amount", "Starting at $1,728 per month", 172800},
		{"picks the minimum", "1 Bed from $1,650 or 2 Bed from $2,100", 165000},
		{"ignores fee-sized amounts", "Application fee $50, rent from $1,500", 150000},
		{"ignores implausibly large amounts", "Home value $450,000, rent $1,900", 190000},
		{"no plausible amount", "Deposit $99 only", 0},
		{"no currency at all", "Call for pricing", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, minRentInText(tt.text))
		})
	}
}

func TestParseSqft(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"plain", "750 sq ft", 750},
		{"abbreviated", "1,100 sqft", 1100},
		{"spelled out", "950 square feet", 950},
		{"dotted", "825 sq. ft.", 825},
		{"absent", "1 Bed 1 Bath", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseSqft(tt.text))
		})
	}
}

func TestParseLeaseTerm(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"hyphenated", "12-month lease", 12},
		{"spaced", "6 month term", 6},
		{"default when absent", "Starting at $1,500", 12},
		{"implausible falls back", "99 month lease", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLeaseTerm(tt.text))
		})
	}
}

func TestInferUnitType(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"studio", "Cozy Studio from $1,400", "Studio"},
		{"bed and bath", "1 Bed 1 Bath 750 sq ft", "1 Bed 1 Bath"},
		{"bed only", "2 Bedroom apartment", "2 Bed"},
		{"label truncated at currency", "The Aspen $1,850", "The Aspen"},
		{"empty falls back", "", "Unit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferUnitType(tt.text))
		})
	}
}

func TestParseAvailability(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		text         string
		expectStatus model.UnitStatus
		expectDate   string
	}{
		{"empty", "", model.UnitAvailable, ""},
		{"available now", "Available Now", model.UnitAvailable, "2026-08-29"},
		{"immediate", "Immediate move-in", model.UnitAvailable, "2026-08-29"},
		{"coming soon", "Coming Soon", model.UnitComingSoon, ""},
		{"leased", "Leased", model.UnitLeased, ""},
		{"not available", "Not Available", model.UnitLeased, ""},
		{"iso date", "2026-09-15", model.UnitAvailable, "2026-09-15"},
		{"slash date two digit year", "3/15/26", model.UnitAvailable, "2026-03-15"},
		{"slash date four digit year", "10/1/2026", model.UnitAvailable, "2026-10-01"},
		{"slash date no year", "9/1", model.UnitAvailable, "2026-09-01"},
		{"month name with year", "Oct 1, 2026", model.UnitAvailable, "2026-10-01"},
		{"month name defaults year", "September 15", model.UnitAvailable, "2026-09-15"},
		{"ordinal day", "March 3rd", model.UnitAvailable, "2026-03-03"},
		{"unparseable text", "call for details", model.UnitAvailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, date := parseAvailability(tt.text, now)
			assert.Equal(t, tt.expectStatus, status)
			assert.Equal(t, tt.expectDate, date)
		})
	}
}

func TestAvailabilityText(t *testing.T) {
	assert.Equal(t, "Available Now", availabilityText("2 Bed available now from $2,100"))
	assert.Equal(t, "Coming Soon", availabilityText("Studio $1,400 Coming Soon"))
	assert.Equal(t, "Leased", availabilityText("2 Bed 2 Bath Leased"))
	assert.Equal(t, "3/15/26", availabilityText("1 Bed 1 Bath Available: 3/15/26"))
	assert.Equal(t, "", availabilityText("1 Bed 1 Bath $1,500"))
}
