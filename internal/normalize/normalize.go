// Package normalize turns raw link text into a case-normalized model.ParsedURL.
package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/linkguard/internal/model"
)

// ErrMalformedURL is matched by every parse failure
var ErrMalformedURL = errors.New("malformed URL")

// MalformedURLError carries the input and the underlying parse error
type MalformedURLError struct {
	Input string
	Err   error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed URL %q: %v", e.Input, e.Err)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedURL) succeed
func (e *MalformedURLError) Is(target error) bool { return target == ErrMalformedURL }

// Parse parses raw per standard URL grammar and lowercases the hostname.
// Input without a scheme or host is rejected; reachability is never checked.
func Parse(raw string) (model.ParsedURL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return model.ParsedURL{}, &MalformedURLError{Input: raw, Err: err}
	}

	if parsed.Scheme == "" {
		return model.ParsedURL{}, &MalformedURLError{Input: raw, Err: errors.New("missing scheme")}
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return model.ParsedURL{}, &MalformedURLError{Input: raw, Err: errors.New("missing host")}
	}

	pathQuery := parsed.EscapedPath()
	if parsed.RawQuery != "" {
		pathQuery += "?" + parsed.RawQuery
	}

	return model.ParsedURL{
		Scheme:    strings.ToLower(parsed.Scheme),
		Hostname:  host,
		PathQuery: pathQuery,
		Original:  raw,
	}, nil
}
