package validate

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// URL validation errors.
var (
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
	ErrPrivateHost      = errors.New("URL points at a private or local host")
)

const maxURLLength = 2048

// MediaURL accepts either a site-relative path ("/videos/intro.mp4") or an
// absolute http(s) URL with a public host.
func MediaURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}
	if len(raw) > maxURLLength {
		return "", fmt.Errorf("%w: URL exceeds %d characters", ErrStringTooLong, maxURLLength)
	}

	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		if strings.Contains(u.Path, "..") {
			return "", fmt.Errorf("%w: path traversal", ErrInvalidURL)
		}
		return raw, nil
	}
	return Link(raw)
}

// Link validates an absolute http(s) URL such as a story call-to-action.
// Hosts that are localhost or literal private, loopback or link-local IPs are
// rejected. Hostnames are not resolved.
func Link(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}
	if len(raw) > maxURLLength {
		return "", fmt.Errorf("%w: URL exceeds %d characters", ErrStringTooLong, maxURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("%w: %q", ErrDisallowedScheme, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return "", ErrPrivateHost
	}
	if addr, err := netip.ParseAddr(host); err == nil && isPrivateAddr(addr) {
		return "", fmt.Errorf("%w: %s", ErrPrivateHost, addr)
	}

	return raw, nil
}

func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified()
}
