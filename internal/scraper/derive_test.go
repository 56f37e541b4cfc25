package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rentradar/scraper-api/internal/model"
)

func TestDeriveTotalUnits(t *testing.T) {
	t.Run("explicit mention wins", func(t *testing.T) {
		assert.Equal(t, 200, deriveTotalUnits("Our neighborhood of 200 units offers modern living", 4))
	})

	t.Run("estimated from floor plan count", func(t *testing.T) {
		assert.Equal(t, 10, deriveTotalUnits("no counts here", 4))
		assert.Equal(t, 3, deriveTotalUnits("no counts here", 1))
	})

	t.Run("zero without any signal", func(t *testing.T) {
		assert.Equal(t, 0, deriveTotalUnits("no counts here", 0))
	})

	t.Run("implausible mention ignored", func(t *testing.T) {
		assert.Equal(t, 5, deriveTotalUnits("0 units", 2))
	})
}

func TestDeriveOccupancy(t *testing.T) {
	assert.Equal(t, 95.0, deriveOccupancy(200, 10))
	assert.Equal(t, 60.0, deriveOccupancy(5, 2))
	assert.Equal(t, 0.0, deriveOccupancy(0, 5))
	// More availability than inventory clamps to zero occupancy
	assert.Equal(t, 0.0, deriveOccupancy(10, 15))
}

func TestAvgRentPerSqft(t *testing.T) {
	rates := []model.LeaseRate{
		{PriceCents: 150000, Sqft: 750},
		{PriceCents: 220000, Sqft: 1100},
		{PriceCents: 180000, Sqft: 0}, // no sqft, excluded
	}
	assert.InDelta(t, 2.0, avgRentPerSqft(rates), 0.01)
	assert.Equal(t, 0.0, avgRentPerSqft(nil))
}

func TestAvgDaysToLease(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	rates := []model.LeaseRate{
		{AvailableDate: "2026-09-08"},  // 10 days out
		{AvailableDate: "2026-09-28"},  // 30 days out
		{AvailableDate: "2026-08-29"},  // today, excluded
		{AvailableDate: ""},            // no date, excluded
		{AvailableDate: "not-a-date"},  // unparseable, excluded
	}
	assert.Equal(t, 20, avgDaysToLease(rates, now))
	assert.Equal(t, 0, avgDaysToLease(nil, now))
}

func TestClassifyProperty(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	t.Run("premium scores class A", func(t *testing.T) {
		got := classifyProperty(2.6, 2024, 15, 0, 5, now)
		assert.Equal(t, model.ClassA, got)
	})

	t.Run("mid market scores class B", func(t *testing.T) {
		got := classifyProperty(2.1, 2019, 5, 1, 4, now)
		assert.Equal(t, model.ClassB, got)
	})

	t.Run("weak signals score class D", func(t *testing.T) {
		got := classifyProperty(0.9, 1950, 0, 3, 5, now)
		assert.Equal(t, model.ClassD, got)
	})

	t.Run("no signal stays unset", func(t *testing.T) {
		got := classifyProperty(0, 0, 0, 0, 0, now)
		assert.Equal(t, model.ClassUnset, got)
	})

	t.Run("class never drops as rent density rises", func(t *testing.T) {
		rank := map[model.PropertyClass]int{
			model.ClassD: 0,
			model.ClassC: 1,
			model.ClassB: 2,
			model.ClassA: 3,
		}
		prev := rank[classifyProperty(0.5, 2010, 5, 1, 4, now)]
		for _, rentPerSqft := range []float64{1.1, 1.6, 2.1, 2.6} {
			cur := rank[classifyProperty(rentPerSqft, 2010, 5, 1, 4, now)]
			assert.GreaterOrEqual(t, cur, prev)
			prev = cur
		}
	})
}

func TestExtractCharacteristics(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	pageText := "Built in 2015 and renovated in 2021, this garden-style home is " +
		"professionally managed by Greystar Real Estate, offering covered parking for $150 monthly. " +
		"Pet rent is $50. Application fee of $75 and admin fee of $250 due at signing."

	record := &model.PropertyRecord{}
	extractCharacteristics(record, pageText, now)

	assert.Equal(t, 2015, record.YearBuilt)
	assert.Equal(t, 2021, record.YearRenovated)
	assert.Equal(t, "garden-style", record.BuildingType)
	assert.Equal(t, "Greystar Real Estate", record.ManagementCompany)
	assert.Equal(t, int64(15000), record.ParkingFeeMonthlyCents)
	assert.Equal(t, int64(5000), record.PetRentMonthlyCents)
	assert.Equal(t, int64(7500), record.ApplicationFeeCents)
	assert.Equal(t, int64(25000), record.AdminFeeCents)
}

func TestExtractCharacteristicsBounds(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	record := &model.PropertyRecord{}
	extractCharacteristics(record, "Built in 2099. Application fee of $2,500.", now)

	// Future years and implausibly large fees are rejected
	assert.Equal(t, 0, record.YearBuilt)
	assert.Equal(t, int64(0), record.ApplicationFeeCents)
}

func TestSummarize(t *testing.T) {
	t.Run("empty batch has no summary", func(t *testing.T) {
		assert.Nil(t, Summarize(nil))
	})

	t.Run("aggregates across records", func(t *testing.T) {
		records := []model.PropertyRecord{
			{
				LeaseRates: []model.LeaseRate{
					{PriceCents: 150000, Sqft: 750},
					{PriceCents: 220000, Sqft: 1100},
				},
				Concessions: []model.Concession{{Type: model.ConcessionFreeRent, Description: "one month free"}},
			},
			{
				LeaseRates: []model.LeaseRate{
					{PriceCents: 170000},
				},
			},
		}
		summary := Summarize(records)
		assert.Equal(t, 2, summary.PropertyCount)
		assert.Equal(t, 3, summary.UnitCount)
		assert.Equal(t, int64(180000), summary.AvgRentCents)
		assert.InDelta(t, 2.0, summary.AvgRentPerSqft, 0.01)
		assert.Equal(t, 1, summary.ConcessionCount)
	})
}
