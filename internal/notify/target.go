package notify

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Webhook target rejections.
var (
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrInvalidScheme    = errors.New("only HTTPS allowed")
	ErrEmptyHost        = errors.New("URL must have a host")
	ErrLocalhostBlocked = errors.New("localhost not allowed")
	ErrPrivateIP        = errors.New("private IP addresses not allowed")
)

// Resolver looks up the addresses of a host.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ValidateTargetURL rejects webhook targets that are not public HTTPS
// endpoints. A nil resolver uses net.DefaultResolver. Hosts that do not
// resolve pass; delivery reports them.
func ValidateTargetURL(ctx context.Context, targetURL string, resolver Resolver) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "https" {
		return ErrInvalidScheme
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "":
		return ErrEmptyHost
	case host == "localhost", strings.HasSuffix(host, ".localhost"), strings.HasSuffix(host, ".local"):
		return ErrLocalhostBlocked
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return checkAddr(addr)
	}

	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if err := checkAddr(addr); err != nil {
			return err
		}
	}
	return nil
}

func checkAddr(addr netip.Addr) error {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() || addr.IsMulticast() || cgnat.Contains(addr) {
		return ErrPrivateIP
	}
	return nil
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// ExtractHost returns only the host of a URL for safe logging.
func ExtractHost(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "(invalid)"
	}
	return u.Host
}
