// Package redact removes credentials from errors returned by HTTP clients.
package redact

import (
	"errors"
	"net/url"
)

// URLError returns err with the query string stripped from any *url.Error it
// wraps. API keys and tokens travel in the query, and *url.Error prints the
// full request URL. The wrapped cause is preserved.
func URLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: stripQuery(ue.URL), Err: ue.Err}
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.User = nil
	return u.String()
}
