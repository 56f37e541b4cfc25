package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentradar/scraper-api/internal/model"
)

const floorPlanPage = `<!DOCTYPE html>
<html>
<body>
<header><h1 class="property-name">The Birchwood</h1></header>
<address>4120 Elm Street, Austin, TX 78701</address>
<a href="tel:+15125550142">Call us</a>
<div class="special-banner">Get 1 month free when you sign a 12-month lease today</div>
<div class="floorplan-card">1 Bed 1 Bath 750 sq ft Starting at $1,728 Available Now</div>
<div class="floorplan-card">2 Bed 2 Bath 1,100 sq ft Starting at $2,350 Available: 3/15/26</div>
<ul class="amenities-list">
<li>Resort-Style Pool</li>
<li>Fitness Center</li>
<li>Dog Park</li>
</ul>
</body>
</html>`

func TestExtractFloorPlanPage(t *testing.T) {
	record, err := Extract(floorPlanPage, "https://example.com/birchwood", Options{})
	require.NoError(t, err)

	assert.Equal(t, "The Birchwood", record.Name)
	assert.Equal(t, "4120 Elm Street, Austin, TX 78701", record.Address)
	assert.Equal(t, "+15125550142", record.Phone)
	assert.Equal(t, model.PMSUnknown, record.PMSType)

	require.Len(t, record.LeaseRates, 2)

	first := record.LeaseRates[0]
	assert.Equal(t, "1 Bed 1 Bath", first.UnitType)
	assert.Equal(t, 750, first.Sqft)
	assert.Equal(t, int64(172800), first.PriceCents)
	assert.Equal(t, model.UnitAvailable, first.UnitStatus)
	assert.NotEmpty(t, first.AvailableDate)

	second := record.LeaseRates[1]
	assert.Equal(t, "2 Bed 2 Bath", second.UnitType)
	assert.Equal(t, 1100, second.Sqft)
	assert.Equal(t, int64(235000), second.PriceCents)
	assert.Equal(t, model.UnitAvailable, second.UnitStatus)
	assert.Equal(t, "2026-03-15", second.AvailableDate)

	require.Len(t, record.Concessions, 1)
	assert.Equal(t, model.ConcessionFreeRent, record.Concessions[0].Type)
	assert.Equal(t, "1 month free", record.Concessions[0].Value)

	assert.Equal(t, []string{"Resort-Style Pool", "Fitness Center", "Dog Park"}, record.Amenities)

	// Two floor plans scale up to an estimated five units, both available
	assert.Equal(t, 5, record.TotalUnits)
	assert.Equal(t, 60.0, record.OccupancyPercent)

	// Snapshot is reserved for pages that yield nothing
	assert.Empty(t, record.RawHTML)
}

func TestExtractMixedAvailability(t *testing.T) {
	html := `<html><body>
<div class="floorplan-card">Studio - $1,500 - 637 sqft - Available Now</div>
<div class="floorplan-card">1 Bed - $1,800 - 750 sqft - Coming Soon</div>
</body></html>`

	record, err := Extract(html, "https://example.com/mixed", Options{})
	require.NoError(t, err)
	require.Len(t, record.LeaseRates, 2)

	assert.Equal(t, "Studio", record.LeaseRates[0].UnitType)
	assert.Equal(t, int64(150000), record.LeaseRates[0].PriceCents)
	assert.Equal(t, 637, record.LeaseRates[0].Sqft)
	assert.Equal(t, model.UnitAvailable, record.LeaseRates[0].UnitStatus)

	assert.Equal(t, "1 Bed", record.LeaseRates[1].UnitType)
	assert.Equal(t, int64(180000), record.LeaseRates[1].PriceCents)
	assert.Equal(t, 750, record.LeaseRates[1].Sqft)
	assert.Equal(t, model.UnitComingSoon, record.LeaseRates[1].UnitStatus)
	assert.Empty(t, record.LeaseRates[1].AvailableDate)
}

func TestExtractDeduplicatesRates(t *testing.T) {
	html := `<html><body>
<div class="floorplan-card">1 Bed 1 Bath 750 sq ft from $1,650 per month</div>
<div class="floorplan-card">1 Bed 1 Bath 750 sq ft from $1,650 per month</div>
</body></html>`

	record, err := Extract(html, "https://example.com/dup", Options{})
	require.NoError(t, err)
	assert.Len(t, record.LeaseRates, 1)
}

func TestExtractHonorsMaxRates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	cards := []string{
		`<div class="floorplan-card">Studio 500 sq ft from $1,400 per month</div>`,
		`<div class="floorplan-card">1 Bed 1 Bath 750 sq ft from $1,650 per month</div>`,
		`<div class="floorplan-card">2 Bed 1 Bath 950 sq ft from $1,950 per month</div>`,
		`<div class="floorplan-card">2 Bed 2 Bath 1,100 sq ft from $2,350 per month</div>`,
	}
	for _, c := range cards {
		sb.WriteString(c)
	}
	sb.WriteString("</body></html>")

	record, err := Extract(sb.String(), "https://example.com/many", Options{MaxRates: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(record.LeaseRates), 4)
	assert.GreaterOrEqual(t, len(record.LeaseRates), 2)
}

func TestExtractIgnoresChromeAndHiddenElements(t *testing.T) {
	html := `<html><body>
<nav><div class="floorplan-card">1 Bed 1 Bath menu teaser from $1,500 monthly</div></nav>
<div class="floorplan-card" style="display:none">2 Bed 2 Bath ghost unit from $2,000 monthly</div>
<div class="floorplan-card">1 Bed 1 Bath 700 sq ft from $1,600 per month</div>
</body></html>`

	record, err := Extract(html, "https://example.com/chrome", Options{})
	require.NoError(t, err)
	require.Len(t, record.LeaseRates, 1)
	assert.Equal(t, int64(160000), record.LeaseRates[0].PriceCents)
}

func TestExtractEmptyPageKeepsSnapshot(t *testing.T) {
	html := `<html><body><p>Leasing office opens soon.</p></body></html>`

	record, err := Extract(html, "https://example.com/empty", Options{})
	require.NoError(t, err)
	assert.Empty(t, record.LeaseRates)
	assert.Equal(t, html, record.RawHTML)
}

func TestExtractSnapshotIsCapped(t *testing.T) {
	html := `<html><body><p>` + strings.Repeat("x", 4096) + `</p></body></html>`

	record, err := Extract(html, "https://example.com/capped", Options{SnapshotBytes: 64})
	require.NoError(t, err)
	assert.Len(t, record.RawHTML, 64)
}

func TestExtractEntrataFallback(t *testing.T) {
	html := `<html>
<head><script src="https://www.entrata.com/js/widget.js"></script></head>
<body>
<div class="fp-mosaic-tile">Studio From $1,500 per month at move-in</div>
</body>
</html>`

	record, err := Extract(html, "https://example.com/entrata", Options{})
	require.NoError(t, err)
	assert.Equal(t, model.PMSEntrata, record.PMSType)
	require.Len(t, record.LeaseRates, 1)
	assert.Equal(t, "Studio", record.LeaseRates[0].UnitType)
	assert.Equal(t, int64(150000), record.LeaseRates[0].PriceCents)
}

func TestDetectPMS(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected model.PMSType
	}{
		{"entrata", `<script src="https://cdn.entrata.com/app.js"></script>`, model.PMSEntrata},
		{"realpage", `<div data-vendor="RealPage OneSite"></div>`, model.PMSRealPage},
		{"yardi", `<a href="https://www.rentcafe.com/apply">Apply</a>`, model.PMSYardi},
		{"resman", `<script src="https://myresman.com/embed.js"></script>`, model.PMSResMan},
		{"appfolio", `<iframe src="https://example.appfolio.com/listings"></iframe>`, model.PMSAppFolio},
		{"unknown", `<div>plain marketing site</div>`, model.PMSUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectPMS(tt.html))
		})
	}
}

func TestExtractConcessionsDeduplicates(t *testing.T) {
	html := `<html><body>
<div class="promo-bar">Receive a $500 gift card at move-in</div>
<div class="special-offer">Receive a $500 gift card at move-in</div>
<div class="offer-strip">Waived application fee this weekend</div>
</body></html>`

	record, err := Extract(html, "https://example.com/promo", Options{})
	require.NoError(t, err)
	require.Len(t, record.Concessions, 2)

	byType := map[model.ConcessionType]model.Concession{}
	for _, c := range record.Concessions {
		byType[c.Type] = c
	}
	assert.Equal(t, "$500", byType[model.ConcessionGiftCard].Value)
	assert.Contains(t, byType[model.ConcessionWaivedFee].Description, "Waived application fee")
}
