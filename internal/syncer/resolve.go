package syncer

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/ankiqueue/ankiqueue/internal/ports"
)

// CandidateURLs expands a base server URL into the list of endpoint
// candidates to probe, mirroring the server's own port fallback: the
// configured port first, then the following ports in increasing order.
func CandidateURLs(baseURL string, attempts int) ([]string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing scheme or host", baseURL)
	}

	preferred := 80
	if parsed.Scheme == "https" {
		preferred = 443
	}
	if raw := parsed.Port(); raw != "" {
		preferred, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid port in server URL %q: %w", baseURL, err)
		}
	}

	candidates := ports.Candidates(preferred, attempts)
	urls := make([]string, 0, len(candidates))
	for _, port := range candidates {
		u := *parsed
		u.Host = parsed.Hostname() + ":" + strconv.Itoa(port)
		urls = append(urls, u.String())
	}
	return urls, nil
}
