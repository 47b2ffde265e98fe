package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoObject is returned by the JSON tier when the raw text has no
// balanced {...} object.
var ErrNoObject = errors.New("recommend: no JSON object in model output")

// ErrNoFit is returned when a tier cannot find a fit percentage.
var ErrNoFit = errors.New("recommend: no fit percentage in model output")

// Analysis is the parsed, not yet normalized, per-carrier assessment.
type Analysis struct {
	Source           AnalysisSource
	FitPct           float64
	Reasons          []string
	Advisories       []string
	Confidence       float64
	HasConfidence    bool
	Summary          string
	Product          string
	UnderwritingPath string
	Citations        []Citation
}

// ParseStrategy is one tier of the model-output parser.
type ParseStrategy struct {
	Source AnalysisSource
	Parse  func(raw string) (Analysis, error)
}

// Strategies returns the parse tiers in the order they are tried. The last
// tier never fails; it scores from topScore, the similarity of the best
// retrieved chunk.
func Strategies(topScore float32) []ParseStrategy {
	return []ParseStrategy{
		{Source: SourceModel, Parse: ParseJSON},
		{Source: SourceExtracted, Parse: ParseFields},
		{Source: SourceHeuristic, Parse: func(string) (Analysis, error) {
			return Heuristic(topScore), nil
		}},
	}
}

// Analyze runs raw through the parse tiers and returns the first success.
func Analyze(raw string, topScore float32) Analysis {
	for _, s := range Strategies(topScore) {
		a, err := s.Parse(raw)
		if err == nil {
			a.Source = s.Source
			return a
		}
	}
	return Heuristic(topScore)
}

// Heuristic builds an evidence-only analysis. The similarity score is
// clamped to [0,1] before scaling so cosine scores below zero cannot
// produce a negative fit.
func Heuristic(topScore float32) Analysis {
	s := float64(topScore)
	if math.IsNaN(s) || s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	fit := math.Max(60, math.Round(s*100))
	return Analysis{
		Source: SourceHeuristic,
		FitPct: fit,
		Reasons: []string{
			fmt.Sprintf("Carrier guidelines closely match the client profile (retrieval similarity %.2f).", s),
		},
		Advisories:    []string{},
		Confidence:    70,
		HasConfidence: true,
	}
}

// ParseJSON extracts the first balanced JSON object from raw, repairs
// trailing commas and bare keys, and decodes it.
func ParseJSON(raw string) (Analysis, error) {
	obj, ok := firstObject(raw)
	if !ok {
		return Analysis{}, ErrNoObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		if err2 := json.Unmarshal([]byte(repairJSON(obj)), &fields); err2 != nil {
			return Analysis{}, fmt.Errorf("recommend: decode model JSON: %w", err)
		}
	}
	norm := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		norm[normalizeKey(k)] = v
	}

	fit, ok := lookupNumber(norm, "fitpct", "fitscore", "fitpercent", "fitpercentage", "fit")
	if !ok {
		return Analysis{}, ErrNoFit
	}
	a := Analysis{
		Source:           SourceModel,
		FitPct:           fit,
		Reasons:          lookupStrings(norm, "reasons", "pros"),
		Advisories:       lookupStrings(norm, "advisories", "cons", "warnings"),
		Summary:          lookupString(norm, "summary"),
		Product:          lookupString(norm, "product"),
		UnderwritingPath: lookupString(norm, "underwritingpath"),
		Citations:        decodeCitations(norm["citations"]),
	}
	a.Confidence, a.HasConfidence = lookupNumber(norm, "confidence")
	return a, nil
}

var (
	fitFieldRe  = regexp.MustCompile(`(?i)["']?\bfit[_ -]?(?:pct|score|percent(?:age)?)\b["']?\s*[:=]\s*["']?(-?\d+(?:\.\d+)?)`)
	confFieldRe = regexp.MustCompile(`(?i)["']?\bconfidence\b["']?\s*[:=]\s*["']?(-?\d+(?:\.\d+)?)`)
	quotedRe    = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
	reasonsRe   = listFieldRe("reasons")
	advisoryRe  = listFieldRe("advisories")
	productRe   = stringFieldRe("product")
	pathRe      = stringFieldRe("underwriting[_ ]?path")
)

func listFieldRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)["']?\b` + name + `\b["']?\s*[:=]\s*\[(.*?)\]`)
}

func stringFieldRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)["']?\b` + name + `\b["']?\s*[:=]\s*"((?:[^"\\]|\\.)*)"`)
}

// ParseFields pulls individual fields out of malformed model output by
// name. It fails only when no fit percentage can be found.
func ParseFields(raw string) (Analysis, error) {
	m := fitFieldRe.FindStringSubmatch(raw)
	if m == nil {
		return Analysis{}, ErrNoFit
	}
	fit, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Analysis{}, ErrNoFit
	}
	a := Analysis{
		Source:     SourceExtracted,
		FitPct:     fit,
		Reasons:    extractList(reasonsRe, raw),
		Advisories: extractList(advisoryRe, raw),
	}
	if c := confFieldRe.FindStringSubmatch(raw); c != nil {
		if v, err := strconv.ParseFloat(c[1], 64); err == nil {
			a.Confidence, a.HasConfidence = v, true
		}
	}
	if p := productRe.FindStringSubmatch(raw); p != nil {
		a.Product = unquote(p[1])
	}
	if p := pathRe.FindStringSubmatch(raw); p != nil {
		a.UnderwritingPath = unquote(p[1])
	}
	return a, nil
}

func extractList(re *regexp.Regexp, raw string) []string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	var out []string
	for _, q := range quotedRe.FindAllStringSubmatch(m[1], -1) {
		if s := strings.TrimSpace(unquote(q[1])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func unquote(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}

// firstObject returns the first balanced {...} substring of s. Braces
// inside JSON strings are ignored.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// repairJSON drops trailing commas before a closing bracket and quotes
// bare object keys. String contents are left untouched.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString, escaped := false, false
	var last byte // last significant byte written outside a string
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				last = '"'
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == ',':
			j := skipSpace(s, i+1)
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(c)
			last = c
		case isIdentStart(c) && (last == '{' || last == ','):
			j := i
			for j < len(s) && isIdent(s[j]) {
				j++
			}
			k := skipSpace(s, j)
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
			} else {
				b.WriteString(s[i:j])
			}
			last = s[j-1]
			i = j - 1
		default:
			b.WriteByte(c)
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				last = c
			}
		}
	}
	return b.String()
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

// number decodes a JSON number or a numeric string such as "85" or "85%".
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func lookupNumber(m map[string]json.RawMessage, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := number(m[k]); ok {
			return f, true
		}
	}
	return 0, false
}

func lookupString(m map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := m[key]; ok && json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func lookupStrings(m map[string]json.RawMessage, keys ...string) []string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			var single string
			if json.Unmarshal(raw, &single) == nil && strings.TrimSpace(single) != "" {
				return []string{strings.TrimSpace(single)}
			}
			continue
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			var s string
			if json.Unmarshal(it, &s) == nil {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

func decodeCitations(raw json.RawMessage) []Citation {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []Citation
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, Citation{Snippet: s})
			}
			continue
		}
		var obj map[string]json.RawMessage
		if json.Unmarshal(it, &obj) != nil {
			continue
		}
		norm := make(map[string]json.RawMessage, len(obj))
		for k, v := range obj {
			norm[normalizeKey(k)] = v
		}
		c := Citation{
			Snippet:       firstString(norm, "snippet", "text", "quote"),
			DocumentTitle: firstString(norm, "documenttitle", "document", "source", "title"),
		}
		c.Score, _ = lookupNumber(norm, "score")
		if c.Snippet != "" {
			out = append(out, c)
		}
	}
	return out
}

func firstString(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := lookupString(m, k); s != "" {
			return s
		}
	}
	return ""
}
