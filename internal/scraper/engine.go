package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rentradar/scraper-api/internal/model"
)

// Options tune a single extraction pass
type Options struct {
	// MaxRates stops the selector cascade once this many valid lease rates
	// have been accumulated. Zero means the default of 5.
	MaxRates int
	// SnapshotBytes caps the raw-HTML diagnostic snapshot. Zero means the
	// default of 50KB.
	SnapshotBytes int
}

const (
	defaultMaxRates      = 5
	defaultSnapshotBytes = 50 * 1024

	// Below this rate count the platform-specific fallback kicks in
	fallbackThreshold = 3
)

// Extract turns one rendered page into a structured PropertyRecord. It never
// fails for "no data found": a page that yields nothing produces a record
// with empty slices and a raw-HTML snapshot for diagnosis. The only error is
// unparseable input markup.
func Extract(html, sourceURL string, opts Options) (*model.PropertyRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered page: %w", err)
	}

	maxRates := opts.MaxRates
	if maxRates <= 0 {
		maxRates = defaultMaxRates
	}
	snapshotBytes := opts.SnapshotBytes
	if snapshotBytes <= 0 {
		snapshotBytes = defaultSnapshotBytes
	}

	now := time.Now()

	record := &model.PropertyRecord{
		SourceURL:   sourceURL,
		PMSType:     detectPMS(html),
		LeaseRates:  []model.LeaseRate{},
		Concessions: []model.Concession{},
	}

	extractPropertyInfo(doc, record)
	record.Concessions = extractConcessions(doc)
	record.Amenities = extractAmenities(doc)

	record.LeaseRates = extractLeaseRates(doc, maxRates)
	if len(record.LeaseRates) < fallbackThreshold && record.PMSType == model.PMSEntrata {
		record.LeaseRates = mergeRates(record.LeaseRates, extractEntrataFallback(doc), maxRates)
	}

	for i := range record.LeaseRates {
		status, date := parseAvailability(record.LeaseRates[i].AvailabilityText, now)
		record.LeaseRates[i].UnitStatus = status
		record.LeaseRates[i].AvailableDate = date
	}

	pageText := cleanText(doc.Find("body").Text())
	derive(record, pageText, now)

	// Nothing extracted: keep the page for debugging. Never populated when
	// at least one rate came through.
	if len(record.LeaseRates) == 0 {
		if len(html) > snapshotBytes {
			html = html[:snapshotBytes]
		}
		record.RawHTML = html
	}

	return record, nil
}

// detectPMS classifies the property-management platform by vendor
// fingerprints in the page markup. Unknown is a valid terminal
// classification, not an error.
func detectPMS(html string) model.PMSType {
	lower := strings.ToLower(html)
	for _, fp := range pmsFingerprints {
		for _, pattern := range fp.patterns {
			if strings.Contains(lower, pattern) {
				return model.PMSType(fp.pms)
			}
		}
	}
	return model.PMSUnknown
}

func extractPropertyInfo(doc *goquery.Document, record *model.PropertyRecord) {
	record.Name = firstMatch(doc, propertyNameSelectors, func(s string) bool {
		return len(s) >= 2 && len(s) <= 120
	})
	record.Address = firstMatch(doc, propertyAddressSelectors, func(s string) bool {
		return len(s) >= 8 && len(s) <= 200
	})

	// tel: links are the most reliable phone source
	if href := firstAttrMatch(doc, []string{`a[href^="tel:"]`}, "href", func(string) bool { return true }); href != "" {
		record.Phone = strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
	} else {
		record.Phone = firstMatch(doc, propertyPhoneSelectors, func(s string) bool {
			digits := strings.Count(s, "0") + strings.Count(s, "1") + strings.Count(s, "2") +
				strings.Count(s, "3") + strings.Count(s, "4") + strings.Count(s, "5") +
				strings.Count(s, "6") + strings.Count(s, "7") + strings.Count(s, "8") +
				strings.Count(s, "9")
			return digits >= 10 && len(s) <= 30
		})
	}
}

func extractAmenities(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var amenities []string
	for _, sel := range amenitySelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if len(amenities) >= 50 || inChrome(s) {
				return
			}
			text := cleanText(s.Text())
			if text == "" || len(text) > 60 || looksLikeCSS(text) {
				return
			}
			key := strings.ToLower(text)
			if seen[key] {
				return
			}
			seen[key] = true
			amenities = append(amenities, text)
		})
		if len(amenities) > 0 {
			break
		}
	}
	return amenities
}

// extractConcessions scans promo regions for leasing-incentive text. UI
// chrome, hidden elements, and stylesheet leakage are excluded; duplicates
// collapse on the normalized description.
func extractConcessions(doc *goquery.Document) []model.Concession {
	seen := make(map[string]bool)
	var concessions []model.Concession

	add := func(text string) {
		text = cleanText(text)
		if len(text) < 10 || len(text) > 300 {
			return
		}
		lower := strings.ToLower(text)
		if !containsConcessionKeyword(lower) {
			return
		}
		key := strings.TrimSpace(lower)
		if seen[key] {
			return
		}
		seen[key] = true
		concessions = append(concessions, model.Concession{
			Type:        classifyConcession(lower),
			Description: text,
			Value:       concessionValue(text),
		})
	}

	for _, sel := range concessionSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if inChrome(s) || isHidden(s) {
				return
			}
			text := s.Text()
			if looksLikeCSS(text) {
				return
			}
			add(text)
		})
	}

	// Structured-data blocks are a low-priority source: only the keyword
	// window is kept, the JSON itself is not trusted.
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		lower := strings.ToLower(text)
		for _, kw := range concessionKeywords {
			idx := strings.Index(lower, kw)
			if idx < 0 {
				continue
			}
			start := idx - 40
			if start < 0 {
				start = 0
			}
			end := idx + len(kw) + 80
			if end > len(text) {
				end = len(text)
			}
			add(strings.Trim(text[start:end], `"\{}[],:`))
		}
	})

	return concessions
}

func containsConcessionKeyword(lower string) bool {
	for _, kw := range concessionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// classifyConcession maps incentive text to the closed concession enum
func classifyConcession(lower string) model.ConcessionType {
	switch {
	case strings.Contains(lower, "gift card"):
		return model.ConcessionGiftCard
	case strings.Contains(lower, "waived") || strings.Contains(lower, "no application fee") ||
		strings.Contains(lower, "no admin fee") || strings.Contains(lower, "no deposit"):
		return model.ConcessionWaivedFee
	case strings.Contains(lower, "free"):
		return model.ConcessionFreeRent
	case strings.Contains(lower, "discount") || strings.Contains(lower, "% off") || strings.Contains(lower, "off your rent"):
		return model.ConcessionDiscount
	}
	return model.ConcessionOther
}

// concessionValue extracts a short value token: a dollar amount, a
// percentage, or a duration.
func concessionValue(text string) string {
	if m := concessionValueRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return ""
}

// extractLeaseRates runs the cascading selector strategy. Within a selector
// every candidate element is examined; once maxRates valid rates have been
// accumulated no further selectors are tried.
func extractLeaseRates(doc *goquery.Document, maxRates int) []model.LeaseRate {
	var rates []model.LeaseRate
	seen := make(map[string]bool)

	for _, sel := range leaseRateSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			rate, ok := rateFromElement(s)
			if !ok {
				return
			}
			key := rate.UnitType + "|" + fmt.Sprint(rate.PriceCents)
			if seen[key] {
				return
			}
			seen[key] = true
			rates = append(rates, rate)
		})
		if len(rates) >= maxRates {
			break
		}
	}
	return rates
}

// rateFromElement applies the chrome/visibility/content guards and parses a
// single candidate element into a lease rate.
func rateFromElement(s *goquery.Selection) (model.LeaseRate, bool) {
	var zero model.LeaseRate

	if inChrome(s) || isHidden(s) {
		return zero, false
	}
	if class, _ := s.Attr("class"); strings.Contains(strings.ToLower(class), "filter") ||
		strings.Contains(strings.ToLower(class), "sort") {
		return zero, false
	}

	text := cleanText(s.Text())
	if len(text) < 10 || len(text) > 1200 {
		return zero, false
	}
	if looksLikeCSS(text) {
		return zero, false
	}
	// Short link/button text is navigation, not a floor-plan card
	if s.Is("a, button") && len(text) < 40 {
		return zero, false
	}

	lower := strings.ToLower(text)
	hasUnitSignal := studioRe.MatchString(text) || strings.Contains(lower, "bed") || strings.Contains(lower, "bath")
	hasCurrency := strings.Contains(text, "$")
	if !hasUnitSignal && !hasCurrency {
		return zero, false
	}

	price := minRentInText(text)
	if price <= 0 {
		return zero, false
	}

	avail := availabilityText(text)
	rate := model.LeaseRate{
		UnitType:         inferUnitType(text),
		Sqft:             parseSqft(text),
		PriceCents:       price,
		LeaseTermMonths:  parseLeaseTerm(text),
		AvailabilityText: avail,
	}
	if m := leaseTermRe.FindString(text); m != "" {
		rate.LeaseTermLabel = cleanText(m)
	}
	return rate, true
}

// extractEntrataFallback applies the entrata "From $X" pattern against
// entrata-flavored selectors. Used only when the general cascade came up
// short on an entrata page.
func extractEntrataFallback(doc *goquery.Document) []model.LeaseRate {
	var rates []model.LeaseRate
	for _, sel := range entrataFallbackSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if inChrome(s) || isHidden(s) {
				return
			}
			text := cleanText(s.Text())
			m := fromPriceRe.FindStringSubmatch(text)
			if m == nil {
				return
			}
			price := parseCents(m[1])
			if price < minRentCents || price > maxRentCents {
				return
			}
			rates = append(rates, model.LeaseRate{
				UnitType:         inferUnitType(text),
				Sqft:             parseSqft(text),
				PriceCents:       price,
				LeaseTermMonths:  parseLeaseTerm(text),
				AvailabilityText: availabilityText(text),
			})
		})
	}
	return rates
}

// mergeRates appends extra rates onto base, keeping the (unitType, price)
// dedup invariant and the accumulation cap.
func mergeRates(base, extra []model.LeaseRate, maxRates int) []model.LeaseRate {
	seen := make(map[string]bool, len(base))
	for _, r := range base {
		seen[r.UnitType+"|"+fmt.Sprint(r.PriceCents)] = true
	}
	for _, r := range extra {
		if len(base) >= maxRates {
			break
		}
		key := r.UnitType + "|" + fmt.Sprint(r.PriceCents)
		if seen[key] {
			continue
		}
		seen[key] = true
		base = append(base, r)
	}
	return base
}
