package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFileName(t *testing.T) {
	got := CacheFileName("7zip", "23.01", "https://www.7-zip.org/a/7z2301-x64.msi#/dl.msi")
	assert.Equal(t, "7zip-23.01-https___www.7-zip.org_a_7z2301-x64.msi__dl.msi", got)
}

func TestCacheFileNameControlCharacters(t *testing.T) {
	got := CacheFileName("app", "1.0", "https://example.com/a\tb?c=1")
	assert.Equal(t, "app-1.0-https___example.com_a_b_c=1", got)
}

func TestCacheFileNameLongURLs(t *testing.T) {
	base := "https://example.com/" + strings.Repeat("segment/", 60)
	first := CacheFileName("app", "1.0", base+"one.zip")
	second := CacheFileName("app", "1.0", base+"two.zip")

	require.LessOrEqual(t, len(first), maxCacheFileName)
	require.LessOrEqual(t, len(second), maxCacheFileName)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "app-1.0-https___example.com_segment_"))
}

func TestCacheVersion(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "nightly-2024-03-05", CacheVersion("nightly", now))
	assert.Equal(t, "1.2.3", CacheVersion("1.2.3", now))
	assert.True(t, IsNightly("nightly"))
	assert.False(t, IsNightly("nightly-2024-03-05"))
}
