package sandbox

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/easelhq/easel/internal/shared/types"
)

// FirstURL parses an RFC 2483 uri-list body and returns the first http(s)
// URL plus any remaining candidates. Lines starting with '#' are comments
// and blank lines are skipped. A body with no usable URL is malformed.
func FirstURL(text string) (string, []string, error) {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		urls = append(urls, u.String())
	}
	if len(urls) == 0 {
		return "", nil, fmt.Errorf("uri-list with no http(s) entry: %w", types.ErrMalformedPayload)
	}
	return urls[0], urls[1:], nil
}
