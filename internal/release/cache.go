package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = "template-version.json"
	// DefaultCacheMaxAge is how long a cached latest-template lookup is trusted.
	DefaultCacheMaxAge = 24 * time.Hour
)

// VersionCache remembers the latest template release seen.
type VersionCache struct {
	Repo        string    `json:"repo"`
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	CheckedAt   time.Time `json:"checked_at"`
}

// LoadCache reads the version cache from dir.
// Returns nil, nil if the cache file does not exist (first run).
func LoadCache(dir string) (*VersionCache, error) {
	path := filepath.Join(dir, cacheFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version cache: %w", err)
	}

	var cache VersionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing version cache: %w", err)
	}
	return &cache, nil
}

// SaveCache writes the version cache to dir.
func SaveCache(dir string, cache *VersionCache) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling version cache: %w", err)
	}

	path := filepath.Join(dir, cacheFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing version cache: %w", err)
	}
	return nil
}

// IsCacheStale returns true if the cache is nil, older than maxAge, or was
// recorded for a different repository.
func IsCacheStale(cache *VersionCache, repo string, maxAge time.Duration) bool {
	if cache == nil || cache.Repo != repo {
		return true
	}
	return time.Since(cache.CheckedAt) > maxAge
}

// CacheFromRelease builds a cache entry for rel.
func CacheFromRelease(repo string, rel *Release) *VersionCache {
	return &VersionCache{
		Repo:        repo,
		TagName:     rel.TagName,
		PublishedAt: rel.PublishedAt,
		CheckedAt:   time.Now(),
	}
}

// Release converts the cache entry back into a metadata-only release.
func (v *VersionCache) Release() *Release {
	return &Release{TagName: v.TagName, PublishedAt: v.PublishedAt}
}
