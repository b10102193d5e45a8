package version

// Version is the service current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/medforge/healthagent/internal/version.Version=v0.2.0"
var Version = "0.1.0-dev"

// GitCommit is the git commit hash at build time.
// Set via ldflags: -X github.com/medforge/healthagent/internal/version.GitCommit=$(git rev-parse HEAD)
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return Version + "+dev"
	}
	return Version
}
