package version

import "fmt"

// Set through -ldflags "-X nmea-drift/internal/version.Version=..." at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the build information on one line per field.
func String() string {
	return fmt.Sprintf("nmeadrift %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildDate)
}
