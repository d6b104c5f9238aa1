package version

// Set at build time with -ldflags "-X muebles-catalog/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
