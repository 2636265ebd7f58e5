package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

const nightlyVersion = "nightly"

// maxCacheFileName keeps cache entries within the common 255 byte limit.
const maxCacheFileName = 255

// CacheFileName names the cache entry for one artifact of app@version.
// Over-long names are truncated and suffixed with a digest of the URL so
// distinct URLs never collapse onto the same entry.
func CacheFileName(app string, version string, url string) string {
	name := sanitizeFileName(fmt.Sprintf("%s-%s-%s", app, version, url))
	if len(name) <= maxCacheFileName {
		return name
	}
	suffix := fmt.Sprintf("-%016x", xxhash.Sum64String(url))
	prefix := name[:maxCacheFileName-len(suffix)]
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix + suffix
}

func sanitizeFileName(value string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		switch r {
		case '/', '\\', '?', '%', '*', ':', '|', '"', '<', '>', '#':
			return '_'
		}
		return r
	}, value)
}

// IsNightly reports whether version names a rolling nightly build.
func IsNightly(version string) bool {
	return version == nightlyVersion
}

// CacheVersion is the version used for cache naming. Nightly manifests get
// the current date so each day fetches a fresh artifact.
func CacheVersion(version string, now time.Time) string {
	if IsNightly(version) {
		return fmt.Sprintf("%s-%s", nightlyVersion, now.Format("2006-01-02"))
	}
	return version
}
