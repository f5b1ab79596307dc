// Package build holds build-time metadata.
package build

// Version is the twpatch release version. It defaults to "dev" and is
// overwritten by linker flags in release builds.
var Version = "dev"
