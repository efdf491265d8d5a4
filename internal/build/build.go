// Package build holds build-time information about the forge binary.
package build

// Version is the forge version reported by the version command.
// It defaults to "dev" and is overwritten by linker flags in releases.
var Version = "dev"
