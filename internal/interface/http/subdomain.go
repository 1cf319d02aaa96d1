package http

import (
	"net"
	"net/http"
	"strings"
)

// passthroughPrefixes are served as-is on client subdomains.
var passthroughPrefixes = []string{"/api/", "/healthz", "/metrics"}

// withSubdomainRewrite serves {sub}.{rootDomain}/path as /client/{sub}/path.
// The apex, www and localhost hosts are left alone.
func withSubdomainRewrite(handler http.Handler, rootDomain string) http.Handler {
	rootDomain = strings.ToLower(strings.TrimSpace(rootDomain))
	if rootDomain == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, ok := clientSubdomain(r.Host, rootDomain)
		if !ok || isPassthrough(r.URL.Path) {
			handler.ServeHTTP(w, r)
			return
		}
		rewritten := r.Clone(r.Context())
		rewritten.URL.Path = "/client/" + sub
		if r.URL.Path != "/" && r.URL.Path != "" {
			rewritten.URL.Path += r.URL.Path
		}
		rewritten.URL.RawPath = ""
		handler.ServeHTTP(w, rewritten)
	})
}

func clientSubdomain(host, rootDomain string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == rootDomain || host == "www."+rootDomain || strings.Contains(host, "localhost") {
		return "", false
	}
	sub, found := strings.CutSuffix(host, "."+rootDomain)
	if !found || sub == "" {
		return "", false
	}
	return sub, true
}

func isPassthrough(path string) bool {
	for _, prefix := range passthroughPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
