package qrcode

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateTargetURL trims the input and checks it is an absolute http(s) URL with a host.
// It returns the trimmed URL.
func ValidateTargetURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: target url is empty", ErrValidation)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: target url: %w", ErrValidation, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: target url must use http or https", ErrValidation)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: target url has no host", ErrValidation)
	}

	return trimmed, nil
}
