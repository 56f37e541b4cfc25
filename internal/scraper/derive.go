package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rentradar/scraper-api/internal/model"
)

var (
	totalUnitsRe = regexp.MustCompile(`(?i)(\d{1,4})\s*(?:units|apartments|apartment homes|residences)`)

	yearBuiltRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)built in (\d{4})`),
		regexp.MustCompile(`(?i)year built[:\s]*(\d{4})`),
		regexp.MustCompile(`(?i)constructed in (\d{4})`),
		regexp.MustCompile(`(?i)established in (\d{4})`),
	}
	yearRenovatedRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)renovated in (\d{4})`),
		regexp.MustCompile(`(?i)renovations? (?:completed )?in (\d{4})`),
		regexp.MustCompile(`(?i)remodeled in (\d{4})`),
	}
	managementRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)professionally managed by ([A-Z][A-Za-z&'.\- ]{2,50})`),
		regexp.MustCompile(`managed by ([A-Z][A-Za-z&'.\- ]{2,50})`),
		regexp.MustCompile(`([A-Z][A-Za-z&'.\- ]{2,40}) (?:community|property)\b`),
	}

	parkingFeeRe = regexp.MustCompile(`(?i)parking[^$\n]{0,30}\$\s*([0-9][0-9,]*)`)
	petRentRe    = regexp.MustCompile(`(?i)pet rent[^$\n]{0,20}\$\s*([0-9][0-9,]*)`)
	appFeeRe     = regexp.MustCompile(`(?i)application fee[^$\n]{0,20}\$\s*([0-9][0-9,]*)`)
	adminFeeRe   = regexp.MustCompile(`(?i)admin(?:istrative|istration)? fee[^$\n]{0,20}\$\s*([0-9][0-9,]*)`)
)

// Building type keywords, checked in order against the page text
var buildingTypes = []string{
	"high-rise",
	"mid-rise",
	"low-rise",
	"garden-style",
	"garden style",
	"townhome",
	"townhouse",
	"mixed-use",
}

// derive computes the post-extraction fields of a record: unit counts,
// occupancy, rent density, property class, and free-text characteristics.
// Each pass is independent; a miss leaves the field at its zero value.
func derive(record *model.PropertyRecord, pageText string, now time.Time) {
	record.TotalUnits = deriveTotalUnits(pageText, len(record.LeaseRates))
	record.OccupancyPercent = deriveOccupancy(record.TotalUnits, availableUnitCount(record.LeaseRates))
	record.AvgRentPerSqft = avgRentPerSqft(record.LeaseRates)
	record.AvgDaysToLease = avgDaysToLease(record.LeaseRates, now)

	extractCharacteristics(record, pageText, now)

	record.PropertyClass = classifyProperty(
		record.AvgRentPerSqft,
		record.YearBuilt,
		len(record.Amenities),
		len(record.Concessions),
		len(record.LeaseRates),
		now,
	)
}

// deriveTotalUnits prefers an explicit unit-count mention. Without one, the
// floor-plan card count is scaled up: cards typically represent a fraction
// of total inventory.
func deriveTotalUnits(pageText string, rateCount int) int {
	if m := totalUnitsRe.FindStringSubmatch(pageText); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 9999 {
			return n
		}
	}
	if rateCount > 0 {
		return int(math.Ceil(float64(rateCount) * 2.5))
	}
	return 0
}

func availableUnitCount(rates []model.LeaseRate) int {
	count := 0
	for _, r := range rates {
		if r.UnitStatus == model.UnitAvailable {
			count++
		}
	}
	return count
}

// deriveOccupancy returns the occupancy percentage rounded to one decimal,
// or 0 when the total unit count is unknown.
func deriveOccupancy(totalUnits, availableUnits int) float64 {
	if totalUnits <= 0 {
		return 0
	}
	occupied := totalUnits - availableUnits
	if occupied < 0 {
		occupied = 0
	}
	return math.Round(float64(occupied)/float64(totalUnits)*1000) / 10
}

// avgDaysToLease estimates the advertised lead time: the mean number of days
// until future-dated move-ins. Units available today contribute nothing.
func avgDaysToLease(rates []model.LeaseRate, now time.Time) int {
	var sum, n int
	for _, r := range rates {
		if r.AvailableDate == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", r.AvailableDate)
		if err != nil {
			continue
		}
		days := int(d.Sub(now).Hours() / 24)
		if days <= 0 {
			continue
		}
		sum += days
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func avgRentPerSqft(rates []model.LeaseRate) float64 {
	var sum float64
	var n int
	for _, r := range rates {
		if r.Sqft <= 0 {
			continue
		}
		sum += float64(r.PriceCents) / 100 / float64(r.Sqft)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}

// classifyProperty computes the A–D market tier from a weighted score:
// rent density 40%, building age 30%, amenity count 20%, concession
// intensity (inverse) 10%. Unset when no contributing signal exists.
func classifyProperty(rentPerSqft float64, yearBuilt, amenityCount, concessionCount, rateCount int, now time.Time) model.PropertyClass {
	hasSignal := rentPerSqft > 0 || yearBuilt > 0 || amenityCount > 0 || rateCount > 0
	if !hasSignal {
		return model.ClassUnset
	}

	score := 0

	switch {
	case rentPerSqft > 2.5:
		score += 40
	case rentPerSqft > 2.0:
		score += 30
	case rentPerSqft > 1.5:
		score += 20
	case rentPerSqft > 1.0:
		score += 10
	}

	if yearBuilt > 0 {
		age := now.Year() - yearBuilt
		switch {
		case age < 5:
			score += 30
		case age < 10:
			score += 25
		case age < 20:
			score += 15
		case age < 30:
			score += 10
		case age < 50:
			score += 5
		}
	}

	switch {
	case amenityCount >= 15:
		score += 20
	case amenityCount >= 10:
		score += 15
	case amenityCount >= 5:
		score += 10
	case amenityCount >= 3:
		score += 5
	}

	if rateCount > 0 {
		concessionRate := float64(concessionCount) / float64(rateCount) * 100
		switch {
		case concessionRate < 15:
			score += 10
		case concessionRate < 30:
			score += 7
		case concessionRate < 50:
			score += 3
		}
	}

	switch {
	case score >= 75:
		return model.ClassA
	case score >= 50:
		return model.ClassB
	case score >= 30:
		return model.ClassC
	}
	return model.ClassD
}

// extractCharacteristics fills building attributes and fees from free text.
// Every field has its own pattern list; the first match wins.
func extractCharacteristics(record *model.PropertyRecord, pageText string, now time.Time) {
	for _, re := range yearBuiltRes {
		if m := re.FindStringSubmatch(pageText); m != nil {
			year, err := strconv.Atoi(m[1])
			if err == nil && year >= 1900 && year <= now.Year() {
				record.YearBuilt = year
				break
			}
		}
	}
	for _, re := range yearRenovatedRes {
		if m := re.FindStringSubmatch(pageText); m != nil {
			year, err := strconv.Atoi(m[1])
			if err == nil && year >= 1900 && year <= now.Year() {
				record.YearRenovated = year
				break
			}
		}
	}

	lower := strings.ToLower(pageText)
	for _, bt := range buildingTypes {
		if strings.Contains(lower, bt) {
			record.BuildingType = strings.ReplaceAll(bt, " ", "-")
			break
		}
	}

	for _, re := range managementRes {
		if m := re.FindStringSubmatch(pageText); m != nil {
			name := cleanText(m[1])
			if len(name) >= 3 {
				record.ManagementCompany = name
				break
			}
		}
	}

	record.ParkingFeeMonthlyCents = feeCents(parkingFeeRe, pageText, 1_000_00)
	record.PetRentMonthlyCents = feeCents(petRentRe, pageText, 500_00)
	record.ApplicationFeeCents = feeCents(appFeeRe, pageText, 1_000_00)
	record.AdminFeeCents = feeCents(adminFeeRe, pageText, 2_000_00)
}

// feeCents parses a fee amount with an upper plausibility bound
func feeCents(re *regexp.Regexp, text string, maxCents int64) int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	cents := parseCents(m[1])
	if cents <= 0 || cents > maxCents {
		return 0
	}
	return cents
}

// Summarize aggregates rent figures across the records of one batch
func Summarize(records []model.PropertyRecord) *model.MarketSummary {
	if len(records) == 0 {
		return nil
	}
	summary := &model.MarketSummary{PropertyCount: len(records)}

	var rentSum int64
	var sqftSum float64
	var sqftN int
	for _, rec := range records {
		summary.ConcessionCount += len(rec.Concessions)
		for _, rate := range rec.LeaseRates {
			summary.UnitCount++
			rentSum += rate.PriceCents
			if rate.Sqft > 0 {
				sqftSum += float64(rate.PriceCents) / 100 / float64(rate.Sqft)
				sqftN++
			}
		}
	}
	if summary.UnitCount > 0 {
		summary.AvgRentCents = rentSum / int64(summary.UnitCount)
	}
	if sqftN > 0 {
		summary.AvgRentPerSqft = math.Round(sqftSum/float64(sqftN)*100) / 100
	}
	return summary
}
