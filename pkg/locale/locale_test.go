package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "en", Lookup("").Tag)
	assert.Equal(t, "en", Lookup("fr").Tag)
	assert.Equal(t, "id", Lookup("id").Tag)
	assert.True(t, Supported("id"))
	assert.False(t, Supported("fr"))
}

func TestFormatting(t *testing.T) {
	en := Lookup("en")
	assert.Equal(t, "message too long, max 1500 characters", en.TooLong(1500))
	assert.Equal(t, "too many requests, retry after 42 seconds", en.RetryAfter(42))
	assert.Equal(t, "torvalds not found", en.NotFound("torvalds"))
	assert.Equal(t, "failed to fetch data from GitHub", en.FetchFailed("GitHub"))

	id := Lookup("id")
	assert.Contains(t, id.TooLong(1500), "1500")
	assert.Contains(t, id.RetryAfter(7), "7 detik")
}

func TestCatalogsAreComplete(t *testing.T) {
	for tag, c := range catalogs {
		for name, s := range map[string]string{
			"Language":           c.Language,
			"EmptyMessage":       c.EmptyMessage,
			"MessageTooLong":     c.MessageTooLong,
			"TooManyRequests":    c.TooManyRequests,
			"LimiterUnavailable": c.LimiterUnavailable,
			"NotConfigured":      c.NotConfigured,
			"BackendFailed":      c.BackendFailed,
			"Acknowledge":        c.Acknowledge,
			"EmptyReply":         c.EmptyReply,
			"ScrapeNotFound":     c.ScrapeNotFound,
			"ScrapeFailed":       c.ScrapeFailed,
		} {
			assert.NotEmpty(t, s, "%s.%s", tag, name)
		}
	}
}
