// Package http provides the HTTP transport used by the download workers.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Connect, TLS handshake and response-header timeouts
//   - A bandwidth limit shared by all concurrent transfers
//   - Rejecting non-2xx responses with a classified error
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{RateLimit: 2 << 20})
//
//	resp, err := client.Fetch(ctx, "https://example.com/file.iso")
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   dst,
//	    Total:    resp.ContentLength,
//	    OnUpdate: func(written, total int64) { lane.SetPosition(written) },
//	}
package http
