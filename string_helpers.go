package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// This file contains helper functions for string manipulation.

// invalidUTF8Replacement stands in for byte sequences Prometheus would reject
// as label values.
const invalidUTF8Replacement = "�"

// cityLabel returns the canonical metric label for a city name: lowercased with
// Unicode-aware case mapping (e.g. "ÉVORA" becomes "évora"). Whitespace is kept
// as sent so a blank city still gets a distinguishable label. Invalid UTF-8 is
// replaced, since client_golang panics on such label values.
func cityLabel(city string) string {
	return cases.Lower(language.Und).String(strings.ToValidUTF8(city, invalidUTF8Replacement))
}

// countryLabel returns the uppercased country code, or UNKNOWN when the
// country is absent or blank.
func countryLabel(country *string) string {
	if country == nil {
		return unknownCode
	}
	c := strings.TrimSpace(strings.ToValidUTF8(*country, invalidUTF8Replacement))
	if c == "" {
		return unknownCode
	}
	return cases.Upper(language.Und).String(c)
}
