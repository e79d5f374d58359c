// Package gateway serves the remote application into the embedded webview.
// It is a reverse proxy that applies the shell's network policy: the
// configured user agent, a content security policy without dynamic
// evaluation, and interactive answers to authentication challenges.
package gateway

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/auth"
	"github.com/Mavwarf/teamsdesk/internal/logging"
)

// ShimPath is where the page bootstrap script is served.
const ShimPath = "/__teamsdesk/shim.js"

//go:embed shim.js
var shim []byte

// Options configures a Gateway.
type Options struct {
	Target    string
	UserAgent string
	// Firewall answers proxy challenges when set.
	Firewall   *auth.Credentials
	Challenger Challenger
	// Transport is the upstream round tripper. Nil uses a transport that
	// honours the proxy environment variables.
	Transport http.RoundTripper
	Log       logger.Logger
}

// landing is served at "/" until the first Open, so the webview has a page
// before the shell has configured the session.
const landing = `<!doctype html><html><head><meta charset="utf-8"><title></title></head><body></body></html>`

// Gateway is an http.Handler proxying to one remote origin.
type Gateway struct {
	target *url.URL
	opened atomic.Bool
	ua     atomic.Value
	proxy  *httputil.ReverseProxy
	log    logger.Logger
}

func New(opts Options) (*Gateway, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("gateway: target: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("gateway: target %q is not an absolute URL", opts.Target)
	}

	g := &Gateway{target: target, log: logging.OrNop(opts.Log)}
	g.ua.Store(opts.UserAgent)

	base := opts.Transport
	if base == nil {
		base = upstream(opts.Firewall)
	}
	g.proxy = &httputil.ReverseProxy{
		Rewrite:        g.rewrite,
		Transport:      newAuthTransport(base, opts.Firewall, opts.Challenger, g.log),
		ModifyResponse: g.modifyResponse,
		ErrorHandler:   g.errorHandler,
	}
	return g, nil
}

// upstream is the default transport: proxy from the environment, with the
// firewall credentials offered on CONNECT.
func upstream(firewall *auth.Credentials) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = http.ProxyFromEnvironment
	if firewall != nil {
		t.ProxyConnectHeader = http.Header{"Proxy-Authorization": {basic(*firewall)}}
	}
	return t
}

// SetUserAgent changes the user agent sent upstream from now on.
func (g *Gateway) SetUserAgent(ua string) {
	g.ua.Store(ua)
}

// UserAgent returns the user agent sent upstream.
func (g *Gateway) UserAgent() string {
	return g.ua.Load().(string)
}

// Target is the proxied origin.
func (g *Gateway) Target() *url.URL {
	u := *g.target
	return &u
}

// Local maps a URL on the proxied origin to the path the webview loads it
// from. Other URLs are returned unchanged.
func (g *Gateway) Local(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, g.target.Host) {
		return raw
	}
	u.Scheme, u.Host, u.User = "", "", nil
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// Open starts proxying and returns the local path for raw, which the
// webview should navigate to.
func (g *Gateway) Open(raw string) string {
	g.opened.Store(true)
	return g.Local(raw)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.opened.Load() && r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		io.WriteString(w, landing)
		return
	}
	if r.URL.Path == ShimPath {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(shim)
		return
	}
	g.proxy.ServeHTTP(w, r)
}

func (g *Gateway) rewrite(r *httputil.ProxyRequest) {
	r.SetURL(g.target)
	r.Out.Host = g.target.Host
	r.Out.Header.Set("User-Agent", g.UserAgent())
	// Let the transport negotiate compression so HTML can be rewritten.
	r.Out.Header.Del("Accept-Encoding")
	if r.In.Header.Get("Origin") != "" {
		r.Out.Header.Set("Origin", g.target.Scheme+"://"+g.target.Host)
	}
	if ref := r.In.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil {
			u.Scheme, u.Host = g.target.Scheme, g.target.Host
			r.Out.Header.Set("Referer", u.String())
		}
	}
}

func (g *Gateway) modifyResponse(resp *http.Response) error {
	h := resp.Header
	for _, name := range []string{"Content-Security-Policy", "Content-Security-Policy-Report-Only"} {
		if vs := h.Values(name); len(vs) > 0 {
			h.Del(name)
			for _, v := range vs {
				h.Add(name, DisallowEval(v))
			}
		}
	}
	if h.Get("Content-Security-Policy") == "" {
		h.Set("Content-Security-Policy", DisallowEval(""))
	}

	if cookies := h.Values("Set-Cookie"); len(cookies) > 0 {
		h.Del("Set-Cookie")
		for _, c := range cookies {
			h.Add("Set-Cookie", stripCookieDomain(c))
		}
	}

	if loc := h.Get("Location"); loc != "" {
		h.Set("Location", g.Local(loc))
	}

	if isHTML(h.Get("Content-Type")) {
		return injectScripts(resp)
	}
	return nil
}

func (g *Gateway) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAuthChallengeUnresolved):
		g.log.Warning(fmt.Sprintf("gateway: %s %s: %v", r.Method, r.URL.Path, err))
	case r.Context().Err() != nil:
		// The webview went away.
		return
	default:
		g.log.Error(fmt.Sprintf("gateway: %s %s: %v", r.Method, r.URL.Path, err))
	}
	http.Error(w, "The page could not be loaded: "+err.Error(), http.StatusBadGateway)
}

// stripCookieDomain drops the Domain attribute so the cookie binds to the
// webview's origin.
func stripCookieDomain(raw string) string {
	parts := strings.Split(raw, ";")
	kept := parts[:1]
	for _, p := range parts[1:] {
		attr := strings.TrimSpace(p)
		if len(attr) >= 6 && strings.EqualFold(attr[:6], "domain") {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ";")
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}
