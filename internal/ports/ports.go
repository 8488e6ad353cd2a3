// Package ports models the port negotiation shared by the queue server
// and the sync helper. The candidate sequence is a pure function so both
// sides derive the same range and so it can be tested without sockets.
package ports

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoPortAvailable is returned when every candidate port is taken.
var ErrNoPortAvailable = errors.New("no port available")

// Candidates returns the ordered ports to try: the preferred port
// followed by attempts-1 increments. attempts values below 1 yield just
// the preferred port.
func Candidates(preferred, attempts int) []int {
	if attempts < 1 {
		attempts = 1
	}

	out := make([]int, 0, attempts)
	for i := 0; i < attempts; i++ {
		p := preferred + i
		if p > 65535 {
			break
		}
		out = append(out, p)
	}
	return out
}

// Listen binds the first free candidate port on host and returns the
// listener together with the port actually bound. When the whole range
// is occupied it returns ErrNoPortAvailable wrapped with the attempted
// range so the operator can see what was tried.
func Listen(host string, preferred, attempts int) (net.Listener, int, error) {
	candidates := Candidates(preferred, attempts)
	if len(candidates) == 0 {
		return nil, 0, fmt.Errorf("%w: no valid ports from %d", ErrNoPortAvailable, preferred)
	}

	for _, port := range candidates {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
		if err == nil {
			return ln, port, nil
		}
	}

	last := candidates[len(candidates)-1]
	return nil, 0, fmt.Errorf("%w: tried ports %d-%d", ErrNoPortAvailable, preferred, last)
}
