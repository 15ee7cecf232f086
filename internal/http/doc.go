// Package http provides the HTTP client used for feed and image requests.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-request timeouts
//   - Bounded retries with exponential cooldown
//   - Typed errors for non-success statuses
//
// # Basic Usage
//
//	client := http.NewClient(http.WithTimeout(30 * time.Second))
//
//	body, err := client.Get(ctx, feedURL)
//	var se *http.StatusError
//	if errors.As(err, &se) {
//	    fmt.Println(se.StatusCode)
//	}
//
// # Retries
//
// Retries are off by default. WithRetries(n, cooldown, exponent) allows n
// extra attempts; the wait before attempt n+1 is cooldown*exponent^n seconds.
// Client errors (4xx other than 429) are never retried.
package http
