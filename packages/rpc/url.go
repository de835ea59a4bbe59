package rpc

import (
	"fmt"
	neturl "net/url"
	"strings"
)

// URLBuilder turns a path and query parameters into an absolute URL.
type URLBuilder interface {
	Build(path string, params map[string]string) (*neturl.URL, error)
}

// URLBuilderFunc adapts a function to URLBuilder.
type URLBuilderFunc func(path string, params map[string]string) (*neturl.URL, error)

func (f URLBuilderFunc) Build(path string, params map[string]string) (*neturl.URL, error) {
	return f(path, params)
}

// BaseURL joins relative paths onto a base URL. Absolute paths are used as
// they are. The zero value accepts absolute paths only.
type BaseURL struct {
	base *neturl.URL
}

func NewBaseURL(raw string) (*BaseURL, error) {
	if raw == "" {
		return &BaseURL{}, nil
	}
	if err := ValidateURL(raw); err != nil {
		return nil, err
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &BaseURL{base: u}, nil
}

func (b *BaseURL) Build(path string, params map[string]string) (*neturl.URL, error) {
	ref, err := neturl.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	var u neturl.URL
	switch {
	case ref.IsAbs():
		u = *ref
	case b.base != nil:
		u = *b.base
		u.Path = strings.TrimRight(b.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
		u.RawPath = ""
		u.RawQuery = ref.RawQuery
		u.Fragment = ""
	default:
		return nil, fmt.Errorf("relative path %q without a base URL", path)
	}

	q, err := neturl.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	if err := ValidateURL(u.String()); err != nil {
		return nil, err
	}
	return &u, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
