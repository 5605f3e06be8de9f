package app

import (
	"fmt"
	"io"
	"runtime"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// HasVersionFlag reports whether args request the version.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the program version.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "dmcompare %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
