package recommend

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Defaults substituted for missing profile fields. They lean towards a
// standard-risk applicant so that missing answers never improve the fit.
const (
	defaultAge            = 45
	defaultHealthStatus   = "average"
	defaultCoverageAmount = 250000
	defaultCoverageType   = "term life"
	defaultTermYears      = 20
	notProvided           = "not provided"
)

// money formats with English digit grouping ($500,000).
func money(format string, args ...any) string {
	return message.NewPrinter(language.English).Sprintf(format, args...)
}

// Query renders p as the natural-language paragraph used both as the
// retrieval query and as the client section of every prompt.
func (p ClientProfile) Query() string {
	age := p.Age
	if age <= 0 || age > 120 {
		age = defaultAge
	}
	coverage := p.CoverageAmount
	if coverage <= 0 {
		coverage = defaultCoverageAmount
	}
	term := p.TermYears
	if term <= 0 {
		term = defaultTermYears
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Life insurance applicant: %d-year-old %s residing in %s.",
		age, or(strings.ToLower(p.Gender), "applicant of unspecified gender"), or(strings.ToUpper(p.State), "an unspecified state"))

	build := or(p.Height, "unknown height")
	if p.WeightLbs > 0 {
		build += fmt.Sprintf(", %d lbs", p.WeightLbs)
	} else {
		build += ", unknown weight"
	}
	fmt.Fprintf(&b, " Build: %s.", build)
	fmt.Fprintf(&b, " Overall health status: %s.", or(p.HealthStatus, defaultHealthStatus))
	fmt.Fprintf(&b, " Occupation: %s.", or(p.Occupation, notProvided))
	fmt.Fprintf(&b, " Nicotine use: %s. Marijuana use: %s.", or(p.Nicotine, "unknown, assume standard tobacco class"), or(p.Marijuana, "not disclosed"))
	fmt.Fprintf(&b, " Medical conditions: %s.", conditions(p))
	fmt.Fprintf(&b, " DUI history: %s.", or(p.DUI, "none disclosed"))
	if len(p.RiskActivities) > 0 {
		fmt.Fprintf(&b, " Hazardous activities: %s.", strings.Join(p.RiskActivities, ", "))
	} else {
		b.WriteString(" Hazardous activities: none disclosed.")
	}
	b.WriteString(money(" Seeking $%d of %s coverage", coverage, or(p.CoverageType, defaultCoverageType)))
	fmt.Fprintf(&b, " for a %d-year term.", term)
	if p.AnnualIncome > 0 {
		b.WriteString(money(" Annual income: $%d.", p.AnnualIncome))
	} else {
		fmt.Fprintf(&b, " Annual income: %s.", notProvided)
	}
	return b.String()
}

func conditions(p ClientProfile) string {
	var parts []string
	add := func(label, v string) {
		v = strings.TrimSpace(v)
		switch strings.ToLower(v) {
		case "", "no", "none", "never", "false":
			return
		}
		parts = append(parts, label+" ("+v+")")
	}
	add("cardiac history", p.Cardiac)
	add("diabetes", p.Diabetes)
	add("cancer history", p.Cancer)
	if len(parts) == 0 {
		return "none reported"
	}
	return strings.Join(parts, "; ")
}

func or(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
