package models

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries  int64            `json:"entries"`
	Hits     int64            `json:"hits"`
	Misses   int64            `json:"misses"`
	BySource map[string]int64 `json:"by_source,omitempty"`
}
