// Package carrier derives carrier identity from source document keys.
//
// Guideline documents are named after the carrier that publishes them, e.g.
// "acme-term-life-2024.pdf" or "Sentinel_IUL_Guide.PDF". The first
// hyphen/underscore-delimited token of the file name is the carrier id.
// Every place that needs a carrier id, display name, placeholder text or
// vector record id goes through this package so the heuristic lives in one
// place.
package carrier

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is the carrier id used when none can be derived from a key.
const Unknown = "unknown"

// MaxRecordIDLen is the maximum length, in characters, of a vector record id.
const MaxRecordIDLen = 64

// ID returns the lower-cased first token of the key's file name.
//
// Edge cases:
//
//	"acme-term.pdf"        → "acme"
//	"docs/Sentinel_IUL.pdf" → "sentinel"  (directories are ignored)
//	"Acme.pdf"             → "acme"      (no delimiter: whole stem)
//	"2024-acme.pdf"        → "2024"      (leading digits are kept as-is)
//	"Ünited-life.pdf"      → "ünited"    (non-ASCII is lower-cased, not stripped)
//	"-.pdf", ""            → "unknown"
func ID(key string) string {
	tok := firstToken(key)
	if tok == "" {
		return Unknown
	}
	return strings.ToLower(tok)
}

// Name returns a display name for a carrier id ("acme" → "Acme").
func Name(id string) string {
	if id == "" {
		id = Unknown
	}
	// Casers carry state and are not safe for concurrent use.
	return cases.Title(language.English).String(id)
}

// PlaceholderText returns the deterministic text indexed for a document
// whose extraction failed or produced nothing.
func PlaceholderText(key string) string {
	tok := strings.ToUpper(firstToken(key))
	if tok == "" {
		tok = strings.ToUpper(Unknown)
	}
	return fmt.Sprintf("%s underwriting guidelines. Carrier: %s. "+
		"Source document text was unavailable; evaluate %s using its standard "+
		"life insurance underwriting criteria.", tok, tok, tok)
}

// RecordID returns the deterministic vector record id for chunk ordinal of
// key: "{key-without-extension}-{ordinal}". The stem is truncated so the whole
// id fits in MaxRecordIDLen characters and the ordinal suffix is never cut.
func RecordID(key string, ordinal int) string {
	suffix := "-" + strconv.Itoa(ordinal)
	stem := strings.TrimSuffix(key, path.Ext(key))

	room := MaxRecordIDLen - len(suffix)
	if utf8.RuneCountInString(stem) > room {
		stem = string([]rune(stem)[:room])
	}
	return stem + suffix
}

// firstToken returns the first non-empty hyphen/underscore-delimited token
// of the key's base name without its extension.
func firstToken(key string) string {
	base := path.Base(strings.ReplaceAll(key, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, tok := range splitTokens(stem) {
		return tok
	}
	return ""
}

// splitTokens splits s on '-' and '_' dropping empty tokens.
func splitTokens(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
