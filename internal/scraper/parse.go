package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rentradar/scraper-api/internal/model"
)

// Plausibility bounds for a monthly lease rate, in cents. Amounts outside
// this window are fees or marketing numbers, not rents.
const (
	minRentCents int64 = 400_00
	maxRentCents int64 = 25_000_00
)

var (
	currencyRe  = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`)
	sqftRe      = regexp.MustCompile(`(?i)([0-9][0-9,]{2,4})\s*(?:sq\.?\s*ft\.?|sqft|square\s+feet|sf\b)`)
	leaseTermRe = regexp.MustCompile(`(?i)(\d{1,2})\s*[- ]?\s*month`)
	bedRe       = regexp.MustCompile(`(?i)(\d+)\s*(?:bed(?:room)?s?|br\b|bd\b)`)
	bathRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d)?)\s*(?:bath(?:room)?s?|ba\b)`)
	studioRe    = regexp.MustCompile(`(?i)\bstudio\b`)

	isoDateRe   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	slashDateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?`)
	monthDateRe = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?`)

	availCaptureRe = regexp.MustCompile(`(?i)availab(?:le|ility)[:\s]+([A-Za-z0-9/,\. ]{1,40})`)
	fromPriceRe    = regexp.MustCompile(`(?i)from\s+\$\s*([0-9][0-9,]*)`)

	// The short value token attached to a concession: a dollar amount,
	// a percentage, or a duration.
	concessionValueRe = regexp.MustCompile(`(?i)\$\s*[0-9][0-9,]*|\d+(?:\.\d+)?\s*%|\d+\s*(?:week|month)s?(?:\s+free)?`)
)

// parseCents converts a matched currency figure like "1,728" or "1728.50"
// into minor units.
func parseCents(figure string) int64 {
	figure = strings.ReplaceAll(figure, ",", "")
	if dot := strings.IndexByte(figure, '.'); dot >= 0 {
		whole, err1 := strconv.ParseInt(figure[:dot], 10, 64)
		frac, err2 := strconv.ParseInt(figure[dot+1:], 10, 64)
		if err1 != nil || err2 != nil {
			return 0
		}
		return whole*100 + frac
	}
	n, err := strconv.ParseInt(figure, 10, 64)
	if err != nil {
		return 0
	}
	return n * 100
}

// minRentInText finds the minimum plausible currency amount in the text.
// Floor-plan cards conventionally render the "starting at" figure as the
// lowest amount, so the minimum is the unit's advertised rate.
func minRentInText(text string) int64 {
	var min int64
	for _, m := range currencyRe.FindAllStringSubmatch(text, -1) {
		cents := parseCents(m[1])
		if cents < minRentCents || cents > maxRentCents {
			continue
		}
		if min == 0 || cents < min {
			min = cents
		}
	}
	return min
}

// parseSqft extracts a bounded-digit square footage figure, 0 when absent
func parseSqft(text string) int {
	m := sqftRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || n < 100 || n > 10000 {
		return 0
	}
	return n
}

// parseLeaseTerm returns the lease length in months, defaulting to 12
func parseLeaseTerm(text string) int {
	m := leaseTermRe.FindStringSubmatch(text)
	if m == nil {
		return 12
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 36 {
		return 12
	}
	return n
}

// inferUnitType derives a unit label from bed/bath tokens, falling back to a
// truncated slice of the element text when no token matches.
func inferUnitType(text string) string {
	if studioRe.MatchString(text) {
		return "Studio"
	}
	bed := bedRe.FindStringSubmatch(text)
	if bed != nil {
		label := bed[1] + " Bed"
		if bath := bathRe.FindStringSubmatch(text); bath != nil {
			label += " " + bath[1] + " Bath"
		}
		return label
	}
	label := cleanText(text)
	if idx := strings.IndexAny(label, "$|"); idx > 0 {
		label = strings.TrimSpace(label[:idx])
	}
	if len(label) > 40 {
		label = strings.TrimSpace(label[:40])
	}
	if label == "" {
		label = "Unit"
	}
	return label
}

// availabilityText pulls the raw availability phrase out of an element's text
func availabilityText(text string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "available now") {
		return "Available Now"
	}
	if strings.Contains(lower, "coming soon") {
		return "Coming Soon"
	}
	if strings.Contains(lower, "not available") || strings.Contains(lower, "unavailable") {
		return "Not Available"
	}
	if strings.Contains(lower, "leased") {
		return "Leased"
	}
	if m := availCaptureRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// parseAvailability maps free-form availability text to a unit status and an
// optional ISO move-in date. Unparseable text is never an error: such units
// default to available with no date.
func parseAvailability(text string, now time.Time) (model.UnitStatus, string) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return model.UnitAvailable, ""
	}

	if strings.Contains(lower, "available now") || strings.Contains(lower, "immediate") {
		return model.UnitAvailable, now.Format("2006-01-02")
	}
	if strings.Contains(lower, "coming soon") || strings.Contains(lower, "future") {
		return model.UnitComingSoon, ""
	}
	if strings.Contains(lower, "not available") || strings.Contains(lower, "unavailable") || strings.Contains(lower, "leased") {
		return model.UnitLeased, ""
	}

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		return model.UnitAvailable, fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return model.UnitAvailable, fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		}
	}
	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		month := monthNumber(m[1])
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if month > 0 && day >= 1 && day <= 31 {
			return model.UnitAvailable, fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		}
	}

	return model.UnitAvailable, ""
}

func monthNumber(name string) int {
	switch strings.ToLower(name[:3]) {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}
