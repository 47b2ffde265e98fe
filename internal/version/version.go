// Package version holds build-time version information for the carrierfit binary.
// The variables in this package are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/carrierfit/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/carrierfit/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/carrierfit/internal/version.BuildDate=2026-01-01"
//
// Local builds fall back to "dev"/"unknown".
package version

// Version is the semantic version of the binary. Defaults to "dev".
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC build date (RFC3339).
var BuildDate = "unknown"

// UserAgent returns the User-Agent string sent on outbound HTTP fetches.
func UserAgent() string {
	return "carrierfit/" + Version
}
