package storefront

// Version information for the storefront client core
const (
	// Version is the current client version
	Version = "development"

	// BuildDate is set during build time
	BuildDate = "development"

	// GitCommit is set during build time
	GitCommit = "unknown"
)
