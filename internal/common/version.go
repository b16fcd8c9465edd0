package common

// Version information set at build time via ldflags
var (
	Version = "0.1.0"
	Build   = "dev"
)

// GetVersion returns the full version string
func GetVersion() string {
	if Build == "dev" {
		return Version + "-dev"
	}
	return Version + "+" + Build
}
