package app

// Build information set via -ldflags; recorded in the run manifest.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
)
