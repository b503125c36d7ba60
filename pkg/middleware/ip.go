package middleware

import (
	"context"
	"strings"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
)

// IPSourceType defines the source for client IP addresses
type IPSourceType string

const (
	// IPSourceRemoteAddr uses the request's RemoteAddr field
	IPSourceRemoteAddr IPSourceType = "remote_addr"

	// IPSourceXForwardedFor uses the X-Forwarded-For header
	IPSourceXForwardedFor IPSourceType = "x_forwarded_for"

	// IPSourceXRealIP uses the X-Real-IP header
	IPSourceXRealIP IPSourceType = "x_real_ip"

	// IPSourceCustomHeader uses a custom header specified in the configuration
	IPSourceCustomHeader IPSourceType = "custom_header"
)

// IPConfig defines configuration for IP extraction
type IPConfig struct {
	// Source specifies where to extract the client IP from
	Source IPSourceType

	// CustomHeader is the name of the custom header to use when Source is IPSourceCustomHeader
	CustomHeader string

	// TrustProxy determines whether to trust proxy headers like X-Forwarded-For.
	// If false, RemoteAddr is used for all sources.
	TrustProxy bool
}

// DefaultIPConfig returns the default IP configuration
func DefaultIPConfig() *IPConfig {
	return &IPConfig{
		Source:     IPSourceRemoteAddr,
		TrustProxy: false,
	}
}

type clientIPKey struct{}

// ClientIP returns the client IP stored by the ClientIPResolver interceptor.
// Without it the IP is derived from RemoteAddr.
func ClientIP(req *common.Request) string {
	if ip, ok := req.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return cleanIP(req.Raw().RemoteAddr)
}

// ClientIPFromContext returns the client IP stored in ctx, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// ClientIPResolver is an interceptor that extracts the client IP from the
// request and stores it in the request context.
func ClientIPResolver(config *IPConfig) common.Interceptor {
	if config == nil {
		config = DefaultIPConfig()
	}
	return func(req *common.Request, res *common.Response, next common.Next) error {
		req.WithValue(clientIPKey{}, extractClientIP(req, config))
		next()
		return nil
	}
}

// extractClientIP extracts the client IP from the request based on the configuration
func extractClientIP(req *common.Request, config *IPConfig) string {
	var ip string

	switch config.Source {
	case IPSourceXForwardedFor:
		ip = extractIPFromXForwardedFor(req.Header("X-Forwarded-For"))
	case IPSourceXRealIP:
		ip = req.Header("X-Real-IP")
	case IPSourceCustomHeader:
		ip = req.Header(config.CustomHeader)
	default:
		ip = req.Raw().RemoteAddr
	}

	// If we don't trust proxy headers or couldn't extract an IP, fall back to RemoteAddr
	if !config.TrustProxy || ip == "" {
		ip = req.Raw().RemoteAddr
	}

	return cleanIP(strings.TrimSpace(ip))
}

// extractIPFromXForwardedFor returns the leftmost, original client, entry of
// an X-Forwarded-For value.
func extractIPFromXForwardedFor(xff string) string {
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// cleanIP removes the port from an IP address if present
func cleanIP(ip string) string {
	// IPv6 addresses with ports are formatted as [IPv6]:port
	if strings.HasPrefix(ip, "[") {
		if end := strings.LastIndex(ip, "]"); end > 0 {
			return ip[:end+1]
		}
		return ip
	}

	// Bare IPv6 addresses carry no port
	if strings.Count(ip, ":") > 1 {
		return ip
	}

	if end := strings.LastIndex(ip, ":"); end > 0 {
		return ip[:end]
	}
	return ip
}
