// Package build carries values injected at link time.
package build

// Version is set with -ldflags "-X github.com/drummonds/gobrewer/internal/build.Version=...".
var Version = "dev"

// Name is the application name shown in window titles.
const Name = "GOBREWER"

// Title returns the window title for the open source path, or just the
// application name and version when nothing is open.
func Title(sourcePath string) string {
	base := Name + " " + Version
	if sourcePath == "" {
		return base
	}
	return sourcePath + " - " + base
}
