// Package buildinfo holds build-time metadata injected with
//
//	-ldflags "-X github.com/courtside/wintracker/internal/buildinfo.Version=v1.2.0
//	          -X github.com/courtside/wintracker/internal/buildinfo.BuildDate=2024-01-10"
package buildinfo

import "fmt"

const unknown = "unknown"

var (
	// Version is the release tag of the build.
	Version = "dev"
	// BuildDate is when the binary was built.
	BuildDate = unknown
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string
	BuildDate string
}

// Get returns the current build metadata with blanks filled in.
func Get() Info {
	info := Info{Version: Version, BuildDate: BuildDate}
	if info.Version == "" {
		info.Version = unknown
	}
	if info.BuildDate == "" {
		info.BuildDate = unknown
	}
	return info
}

// Release names the build for error reports, e.g. "wintracker@v1.2.0".
func (i Info) Release() string {
	return "wintracker@" + i.Version
}

func (i Info) String() string {
	return fmt.Sprintf("%s (built %s)", i.Version, i.BuildDate)
}
