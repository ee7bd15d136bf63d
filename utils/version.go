package utils

// Populated at build time through -ldflags "-X".
var (
	Tag        = "dev"
	GitHash    = "unknown"
	BuildStamp = "unknown"
)
