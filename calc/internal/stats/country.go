package stats

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// CountryName returns the English display name of an ISO 3166 country
// code. Codes without a known name are returned upper-cased.
func CountryName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	// Registry extracts from Uzbekistan carry the alpha-3 code.
	if code == "UZB" {
		code = "UZ"
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}
