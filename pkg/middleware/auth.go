package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"go.uber.org/zap"
)

// AuthProvider defines an interface for authentication providers.
// Different authentication mechanisms can implement this interface
// to be used with the Authenticate interceptor.
type AuthProvider interface {
	// Authenticate returns true if the request carries valid credentials.
	Authenticate(req *common.Request) bool
}

// BasicAuthProvider provides HTTP Basic Authentication.
// It validates username and password credentials against a predefined map.
type BasicAuthProvider struct {
	Credentials map[string]string // username -> password
}

// Authenticate authenticates a request using HTTP Basic Authentication.
func (p *BasicAuthProvider) Authenticate(req *common.Request) bool {
	username, password, ok := req.Raw().BasicAuth()
	if !ok {
		return false
	}

	expectedPassword, exists := p.Credentials[username]
	if !exists {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(expectedPassword)) == 1
}

// BearerTokenProvider provides Bearer Token Authentication.
// It can validate tokens against a predefined map or using a custom validator function.
type BearerTokenProvider struct {
	ValidTokens map[string]bool         // token -> valid
	Validator   func(token string) bool // optional token validator
}

// Authenticate authenticates a request using Bearer Token Authentication.
func (p *BearerTokenProvider) Authenticate(req *common.Request) bool {
	token, ok := strings.CutPrefix(req.Header("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}

	// If a validator is provided, use it
	if p.Validator != nil {
		return p.Validator(token)
	}
	return p.ValidTokens[token]
}

// APIKeyProvider provides API Key Authentication.
// It can validate API keys provided in a header or query parameter.
type APIKeyProvider struct {
	ValidKeys map[string]bool // key -> valid
	Header    string          // header name (e.g., "X-API-Key")
	Query     string          // query parameter name (e.g., "api_key")
}

// Authenticate authenticates a request using API Key Authentication.
func (p *APIKeyProvider) Authenticate(req *common.Request) bool {
	if p.Header != "" {
		if key := req.Header(p.Header); key != "" && p.ValidKeys[key] {
			return true
		}
	}
	if p.Query != "" {
		if key := req.QueryValue(p.Query); key != "" && p.ValidKeys[key] {
			return true
		}
	}
	return false
}

// SessionProvider authenticates requests whose session holds a non-empty
// value under Key, for example the user name stored at login.
type SessionProvider struct {
	Key string
}

// Authenticate reports whether the request session carries Key.
func (p *SessionProvider) Authenticate(req *common.Request) bool {
	if req.Session == nil {
		return false
	}
	v, ok := req.Session.Get(p.Key)
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && s == "" {
		return false
	}
	return true
}

// Authenticate is an interceptor that lets a request through only when
// provider accepts it. Other requests are answered with 401 Unauthorized and
// a JSON error body.
func Authenticate(provider AuthProvider, logger *zap.Logger) common.Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(req *common.Request, res *common.Response, next common.Next) error {
		if !provider.Authenticate(req) {
			logger.Warn("Authentication failed",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.String("client_ip", ClientIP(req)),
			)
			return res.Status(http.StatusUnauthorized).JSON(map[string]string{"error": "Unauthorized"})
		}
		next()
		return nil
	}
}

// RequireSession is an interceptor that rejects requests whose session has
// no value under key. Requests whose path is listed in public pass without a
// check.
func RequireSession(key string, logger *zap.Logger, public ...string) common.Interceptor {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}
	guard := Authenticate(&SessionProvider{Key: key}, logger)

	return func(req *common.Request, res *common.Response, next common.Next) error {
		if _, ok := open[req.Path]; ok {
			next()
			return nil
		}
		return guard(req, res, next)
	}
}
