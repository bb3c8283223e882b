// Package buildinfo carries build stamps injected by the linker:
//
//	go build -ldflags "-X 'github.com/m3rciful/docbot/core/buildinfo.Version=v0.4.0' \
//	  -X 'github.com/m3rciful/docbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/m3rciful/docbot/core/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)'" ./cmd/docbot
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is RFC3339; empty for local builds.
	Date = ""
)
