package scraper

// Selector candidate lists for the extraction cascades. Ordered from most
// page-specific to most generic; the first selector that yields valid data
// wins. PMS platforms render wildly different markup, so every list ends
// with a catch-all.

// Property name candidates
var propertyNameSelectors = []string{
	"h1.property-title",
	"h1.property-name",
	`h1[class*="property"]`,
	`[class*="property-name"]`,
	`[class*="community-name"]`,
	"header h1",
	"h1",
}

// Property address candidates
var propertyAddressSelectors = []string{
	`[class*="property-address"]`,
	`[class*="community-address"]`,
	"address",
	`[class*="address"]`,
	`[itemprop="address"]`,
}

// Phone candidates (tel: links handled separately before these)
var propertyPhoneSelectors = []string{
	`[class*="phone-number"]`,
	`[class*="phone"]`,
	`[itemprop="telephone"]`,
}

// Amenity list candidates
var amenitySelectors = []string{
	`[class*="amenity"] li`,
	`[class*="amenities"] li`,
	"ul.amenities li",
	`[class*="feature-list"] li`,
}

// Concession scan regions: promo banners, special-offer strips, alert bars.
var concessionSelectors = []string{
	`[class*="special"]`,
	`[class*="promo"]`,
	`[class*="concession"]`,
	`[class*="offer"]`,
	`[class*="incentive"]`,
	`[class*="banner"]`,
	".alert",
}

// Lease-rate cascade, most specific first. The generic tail catches PMS
// platforms that render floor plans as plain lists or tables.
var leaseRateSelectors = []string{
	".fp-card, .floorplan-card, .floor-plan-card",
	`[class*="floorplan"], [class*="floor-plan"]`,
	`[class*="unit-card"], [class*="unit-item"], [class*="unit-row"], [class*="apartment-card"]`,
	`[class*="pricing-card"], [class*="rate-card"], [class*="plan-card"], [class*="plan-detail"]`,
	"table tbody tr, table tr",
	"li, article, .card",
}

// Entrata-flavored fallback selectors for the "From $X" pattern
var entrataFallbackSelectors = []string{
	`[class*="fp-"]`,
	`[id*="floorplan"]`,
	`[class*="mosaic"]`,
	`[class*="floor-plans"]`,
}

// Elements whose text is UI chrome, never listing data
const chromeAncestorSelector = "nav, header, footer"

// PMS vendor fingerprints, checked against the full lowercased page markup.
// Order matters: the first hit classifies the platform.
var pmsFingerprints = []struct {
	pms      string
	patterns []string
}{
	{"entrata", []string{"entrata.com", "entrata ", "prospectportal", "elan_id"}},
	{"realpage", []string{"realpage", "onesite", "g5searchmarketing"}},
	{"yardi", []string{"rentcafe", "yardi", "securecafe"}},
	{"resman", []string{"myresman", "resman"}},
	{"appfolio", []string{"appfolio"}},
}

// Concession keyword set. An element must contain at least one of these
// (case-insensitive) to be treated as a leasing incentive.
var concessionKeywords = []string{
	"free rent",
	"month free",
	"months free",
	"weeks free",
	"rent free",
	"waived",
	"no application fee",
	"no admin fee",
	"no deposit",
	"discount",
	"% off",
	"off your rent",
	"gift card",
	"move-in special",
	"move in special",
	"leasing special",
	"look and lease",
}
