// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/heatmap/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/heatmap/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/heatmap/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build description reported by the API health check.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
}

// Current returns the linked-in build information.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// UserAgent identifies heatmap in outgoing HTTP requests, e.g. "heatmap/v1.0.0".
func UserAgent() string {
	return "heatmap/" + Version
}

// Template returns the cobra --version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
