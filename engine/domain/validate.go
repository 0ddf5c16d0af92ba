package domain

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// hostLabel matches one DNS label: alphanumerics and inner hyphens.
var hostLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

const maxHostLength = 253

// ParseInstance validates a user-supplied instance host. Only URL safety is
// checked: a DNS name or IP literal with an optional port. Schemes, paths,
// credentials and whitespace are rejected.
func ParseInstance(raw string) (Instance, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || len(s) > maxHostLength+6 {
		return "", invalidInstance(raw)
	}
	if strings.ContainsAny(s, "/?#@\\ \t%") {
		return "", invalidInstance(raw)
	}

	host, port := s, ""
	switch {
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		host = s[1 : len(s)-1]
	case strings.HasPrefix(s, "[") || strings.Count(s, ":") == 1:
		h, p, err := net.SplitHostPort(s)
		if err != nil || p == "" {
			return "", invalidInstance(raw)
		}
		host, port = h, p
	}

	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", invalidInstance(raw)
		}
	}

	bracketed := strings.HasPrefix(s, "[")
	if ip := net.ParseIP(host); ip != nil {
		// IPv6 must be bracketed to be usable in a URL; IPv4 must not be.
		if (ip.To4() == nil) != bracketed {
			return "", invalidInstance(raw)
		}
		return Instance(s), nil
	}
	if bracketed {
		return "", invalidInstance(raw)
	}

	if len(host) > maxHostLength {
		return "", invalidInstance(raw)
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if !hostLabel.MatchString(label) {
			return "", invalidInstance(raw)
		}
	}
	return Instance(s), nil
}

func invalidInstance(raw string) error {
	return &InstanceError{Value: raw}
}

// InstanceError wraps ErrInvalidInstance with the rejected input.
type InstanceError struct {
	Value string
}

func (e *InstanceError) Error() string {
	return ErrInvalidInstance.Error() + ": " + strconv.Quote(e.Value)
}

func (e *InstanceError) Unwrap() error { return ErrInvalidInstance }
