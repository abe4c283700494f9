package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UnknownClient is the key shared by callers that present no forwarding header.
const UnknownClient = "unknown"

const maxClientKeyLen = 256

// ErrClientKey marks a forwarding header that cannot be used as a key.
var ErrClientKey = errors.New("unusable client key header")

// clientKey derives the rate-limit key from the first header in headers that
// is present, taking its first comma-separated entry.
func clientKey(r *http.Request, headers []string) (string, error) {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		if len(v) > maxClientKeyLen || !printable(v) {
			return "", fmt.Errorf("%w: %s", ErrClientKey, h)
		}
		first, _, _ := strings.Cut(v, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first, nil
		}
	}
	return UnknownClient, nil
}
