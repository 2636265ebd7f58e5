package core

import (
	"sort"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"
)

// versionCache memoizes parsed versions while sorting installed versions
// or comparing bucket and installed versions.
type versionCache struct {
	deb map[string]*debversion.Version
	pep map[string]*pep440.Version
}

func newVersionCache() *versionCache {
	return &versionCache{
		deb: map[string]*debversion.Version{},
		pep: map[string]*pep440.Version{},
	}
}

// pepVersion returns a parsed PEP 440 version or nil, caching both outcomes.
func (c *versionCache) pepVersion(value string) *pep440.Version {
	if parsed, ok := c.pep[value]; ok {
		return parsed
	}
	var out *pep440.Version
	if parsed, err := pep440.Parse(value); err == nil {
		out = &parsed
	}
	c.pep[value] = out
	return out
}

// debVersion returns a parsed Debian version or nil, caching both outcomes.
func (c *versionCache) debVersion(value string) *debversion.Version {
	if parsed, ok := c.deb[value]; ok {
		return parsed
	}
	var out *debversion.Version
	if parsed, err := debversion.NewVersion(value); err == nil {
		out = &parsed
	}
	c.deb[value] = out
	return out
}

// compare returns -1, 0, or 1. PEP 440 ordering is used when both values
// parse, then Debian ordering, then byte order.
func (c *versionCache) compare(a string, b string) int {
	if a == b {
		return 0
	}
	if v1, v2 := c.pepVersion(a), c.pepVersion(b); v1 != nil && v2 != nil {
		if cmp := v1.Compare(*v2); cmp != 0 {
			return cmp
		}
	}
	if v1, v2 := c.debVersion(a), c.debVersion(b); v1 != nil && v2 != nil {
		if cmp := v1.Compare(*v2); cmp != 0 {
			return cmp
		}
	}
	return strings.Compare(a, b)
}

// CompareVersions orders two manifest version strings.
func CompareVersions(a string, b string) int {
	return newVersionCache().compare(a, b)
}

// IsNewerVersion reports whether candidate sorts after current.
func IsNewerVersion(candidate string, current string) bool {
	return CompareVersions(candidate, current) > 0
}

// SortVersions returns a copy of versions in ascending order.
func SortVersions(versions []string) []string {
	cache := newVersionCache()
	out := append([]string(nil), versions...)
	sort.SliceStable(out, func(i, j int) bool {
		return cache.compare(out[i], out[j]) < 0
	})
	return out
}
