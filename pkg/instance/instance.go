// Package instance names the running process in logs and lock owners.
package instance

import "os"

// ID returns the platform dyno name, then the host name, then "local".
func ID() string {
	for _, key := range []string{"MBG_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
