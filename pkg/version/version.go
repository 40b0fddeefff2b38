package version

import "fmt"

// Version, GitCommit and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/marktegna/netwalker/pkg/version.Version=v1.0.0 \
//	  -X github.com/marktegna/netwalker/pkg/version.GitCommit=abc1234 \
//	  -X github.com/marktegna/netwalker/pkg/version.BuildDate=2024-01-01"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
