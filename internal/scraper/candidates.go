package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// firstMatch tries selector candidates in order and returns the trimmed text
// of the first element that passes the valid predicate. This is the general
// pattern across the extraction engine: ordered candidates, first valid wins.
func firstMatch(doc *goquery.Document, selectors []string, valid func(string) bool) string {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := cleanText(s.Text())
			if text == "" || !valid(text) {
				return true
			}
			found = text
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// firstAttrMatch is firstMatch over an attribute instead of element text
func firstAttrMatch(doc *goquery.Document, selectors []string, attr string, valid func(string) bool) string {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			val, ok := s.Attr(attr)
			if !ok {
				return true
			}
			val = strings.TrimSpace(val)
			if val == "" || !valid(val) {
				return true
			}
			found = val
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// cleanText collapses all whitespace runs to single spaces
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// inChrome reports whether the element sits inside navigation, header, or
// footer markup. Listing data never lives there.
func inChrome(s *goquery.Selection) bool {
	if s.Is(chromeAncestorSelector) {
		return true
	}
	return s.ParentsFiltered(chromeAncestorSelector).Length() > 0
}

// isHidden checks inline styles for the common ways elements are hidden.
// Computed styles are not available on a parsed document, so this is a
// best-effort guard.
func isHidden(s *goquery.Selection) bool {
	style, ok := s.Attr("style")
	if !ok {
		return false
	}
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// looksLikeCSS guards against stylesheet text leaking into text extraction
// when pages inline <style> blocks inside scanned regions.
func looksLikeCSS(text string) bool {
	if strings.Count(text, "{") >= 2 && strings.Contains(text, "}") {
		return true
	}
	if strings.Contains(text, "px;") || strings.Contains(text, "font-family") || strings.Contains(text, "!important") {
		return true
	}
	return false
}
