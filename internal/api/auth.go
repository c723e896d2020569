package api

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"

	"bookmirror/internal/config"
)

var errPermissionDenied = fmt.Errorf("permission denied")

// HTTPAuth provides API-key auth and per-key rate limiting.
type HTTPAuth struct {
	cfg     config.APIConfig
	clients map[string]config.APIClientKey
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m, limiter: newRateLimiter(&cfg)}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled && requiredPermission(r) != "" {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey()))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	client, ok := a.findClient(apiKey)
	if !ok {
		return fmt.Errorf("invalid api key")
	}

	return a.checkPermissions(client, r)
}

// findClient сравнивает ключи за постоянное время.
func (a *HTTPAuth) findClient(apiKey string) (config.APIClientKey, bool) {
	for key, client := range a.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return client, true
		}
	}
	return config.APIClientKey{}, false
}

// checkPermissions: пустой список у клиента означает полный доступ.
func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case !strings.HasPrefix(path, "/api/v1/"):
		return ""
	case r.Method == http.MethodGet:
		return "read"
	default:
		return "write"
	}
}

func (a *HTTPAuth) headerAPIKey() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		h = "x-api-key"
	}
	return h
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}
