package gateway

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/auth"
)

// ErrAuthChallengeUnresolved is returned for a request whose authentication
// challenge ended without credentials. The request is not retried.
var ErrAuthChallengeUnresolved = errors.New("gateway: authentication challenge unresolved")

// Challenger supplies credentials for an authentication challenge.
type Challenger interface {
	OnLogin(ch auth.Challenge) *auth.Future
}

// authTransport answers 401 and 407 responses. Proxy challenges use the
// firewall credentials when there are any; everything else goes to the
// challenger. The request is retried once with the credentials, which are
// then reused for the same host.
type authTransport struct {
	base       http.RoundTripper
	firewall   *auth.Credentials
	challenger Challenger
	log        logger.Logger

	mu    sync.Mutex
	cache map[string]auth.Credentials
}

func newAuthTransport(base http.RoundTripper, firewall *auth.Credentials, c Challenger, log logger.Logger) *authTransport {
	return &authTransport{
		base:       base,
		firewall:   firewall,
		challenger: c,
		log:        log,
		cache:      make(map[string]auth.Credentials),
	}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	first := withBody(req, body)
	if cr, ok := t.cached(req.URL.Host); ok {
		first.SetBasicAuth(cr.Username, cr.Password)
	}
	resp, err := t.base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusProxyAuthRequired {
		return resp, nil
	}

	proxy := resp.StatusCode == http.StatusProxyAuthRequired
	header := "WWW-Authenticate"
	if proxy {
		header = "Proxy-Authenticate"
	}
	ch := auth.Challenge{
		Host:  req.URL.Host,
		Realm: parseRealm(resp.Header.Values(header)),
		Proxy: proxy,
	}
	drain(resp)

	cr, err := t.credentials(req, ch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAuthChallengeUnresolved, ch.Host, err)
	}

	retry := withBody(req, body)
	if proxy {
		retry.Header.Set("Proxy-Authorization", basic(cr))
	} else {
		retry.SetBasicAuth(cr.Username, cr.Password)
	}
	resp, err = t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if !proxy && resp.StatusCode != http.StatusUnauthorized {
		t.remember(ch.Host, cr)
	}
	return resp, nil
}

func (t *authTransport) credentials(req *http.Request, ch auth.Challenge) (auth.Credentials, error) {
	if ch.Proxy && t.firewall != nil {
		t.log.Debug(fmt.Sprintf("gateway: answering proxy challenge for %s with firewall credentials", ch.Host))
		return *t.firewall, nil
	}
	if t.challenger == nil {
		return auth.Credentials{}, auth.ErrDismissed
	}
	t.log.Info(fmt.Sprintf("gateway: %s requires authentication (realm %q)", ch.Host, ch.Realm))
	return t.challenger.OnLogin(ch).Wait(req.Context())
}

func (t *authTransport) cached(host string) (auth.Credentials, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cr, ok := t.cache[host]
	return cr, ok
}

func (t *authTransport) remember(host string, cr auth.Credentials) {
	t.mu.Lock()
	t.cache[host] = cr
	t.mu.Unlock()
}

// bufferBody reads and closes the request body so it can be replayed.
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read request body: %w", err)
	}
	return data, nil
}

// withBody clones req with a fresh reader over body.
func withBody(req *http.Request, body []byte) *http.Request {
	r := req.Clone(req.Context())
	if body != nil {
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		r.ContentLength = int64(len(body))
	}
	return r
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func basic(cr auth.Credentials) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(cr.Username+":"+cr.Password))
}

// parseRealm returns the realm parameter of the first challenge that has
// one.
func parseRealm(challenges []string) string {
	for _, c := range challenges {
		lower := strings.ToLower(c)
		i := strings.Index(lower, "realm=")
		if i < 0 {
			continue
		}
		v := c[i+len("realm="):]
		if strings.HasPrefix(v, `"`) {
			v = v[1:]
			if j := strings.IndexByte(v, '"'); j >= 0 {
				return v[:j]
			}
			return v
		}
		if j := strings.IndexAny(v, ", "); j >= 0 {
			v = v[:j]
		}
		return v
	}
	return ""
}
