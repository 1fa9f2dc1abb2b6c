package lifelog

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// localtimePath is the system zone link. Overridden in tests.
var localtimePath = "/etc/localtime"

// LocalTimezone returns the IANA name of the local zone: $TZ when it names
// a loadable zone, else the zoneinfo target of /etc/localtime, else "UTC".
func LocalTimezone() string {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}

	if target, err := filepath.EvalSymlinks(localtimePath); err == nil {
		if name, ok := zoneFromPath(target); ok {
			return name
		}
	}

	return "UTC"
}

// zoneFromPath extracts "Area/City" from a path under a zoneinfo directory.
func zoneFromPath(p string) (string, bool) {
	const marker = "zoneinfo/"
	i := strings.LastIndex(p, marker)
	if i < 0 {
		return "", false
	}
	name := p[i+len(marker):]
	// Some distributions nest zones under posix/ or right/.
	name = strings.TrimPrefix(strings.TrimPrefix(name, "posix/"), "right/")
	if name == "" {
		return "", false
	}
	return name, true
}
