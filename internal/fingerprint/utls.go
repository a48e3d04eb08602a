package fingerprint

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile names the browser whose TLS ClientHello the SERP fetcher mimics.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // standard crypto/tls
	ProfileRandom  Profile = "random" // randomized uTLS hello
)

// ParseProfile maps a config value to a Profile. Empty means chrome.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProfileChrome, nil
	case ProfileChrome, ProfileFirefox, ProfileSafari, ProfileGo, ProfileRandom:
		return p, nil
	default:
		return "", fmt.Errorf("unknown tls profile %q", s)
	}
}

// Transport returns an http.RoundTripper whose TLS handshake looks like the
// given browser. ProfileGo returns a plain clone of http.DefaultTransport.
// proxyFunc, when set, becomes the transport's Proxy.
func Transport(p Profile, proxyFunc func(*http.Request) (*url.URL, error)) (http.RoundTripper, error) {
	return transport(p, proxyFunc, nil)
}

func transport(p Profile, proxyFunc func(*http.Request) (*url.URL, error), base *utls.Config) (*http.Transport, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxyFunc != nil {
		tr.Proxy = proxyFunc
	}
	if p == ProfileGo {
		return tr, nil
	}

	hello, err := helloFor(p)
	if err != nil {
		return nil, err
	}

	dialer := &utlsDialer{dial: tr.DialContext, hello: hello, base: base}
	tr.DialTLSContext = dialer.DialTLSContext
	// The custom dialer speaks HTTP/1.1 only; see restrictALPN.
	tr.ForceAttemptHTTP2 = false
	return tr, nil
}

func helloFor(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		return utls.HelloRandomizedNoALPN, nil
	default:
		return utls.ClientHelloID{}, fmt.Errorf("unknown tls profile %q", p)
	}
}

type utlsDialer struct {
	dial  func(ctx context.Context, network, addr string) (net.Conn, error)
	hello utls.ClientHelloID
	base  *utls.Config
}

// DialTLSContext dials TCP and performs the uTLS handshake.
func (d *utlsDialer) DialTLSContext(ctx context.Context, network, addr string) (net.Conn, error) {
	tcpConn, err := d.dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	cfg := &utls.Config{}
	if d.base != nil {
		cfg = d.base.Clone()
	}
	cfg.ServerName = host

	uConn, err := d.client(tcpConn, cfg)
	if err != nil {
		_ = tcpConn.Close()
		return nil, err
	}
	if err := uConn.HandshakeContext(ctx); err != nil {
		_ = tcpConn.Close()
		return nil, fmt.Errorf("utls handshake failed: %w", err)
	}
	return uConn, nil
}

// client builds the uTLS connection. Browser presets advertise h2, which
// http.Transport cannot speak over a custom DialTLSContext, so their ALPN is
// narrowed to http/1.1.
func (d *utlsDialer) client(conn net.Conn, cfg *utls.Config) (*utls.UConn, error) {
	if d.hello == utls.HelloRandomizedNoALPN {
		return utls.UClient(conn, cfg, d.hello), nil
	}

	spec, err := utls.UTLSIdToSpec(d.hello)
	if err != nil {
		return nil, fmt.Errorf("failed to build client hello: %w", err)
	}
	restrictALPN(&spec)

	uConn := utls.UClient(conn, cfg, utls.HelloCustom)
	if err := uConn.ApplyPreset(&spec); err != nil {
		return nil, fmt.Errorf("failed to apply client hello: %w", err)
	}
	return uConn, nil
}

func restrictALPN(spec *utls.ClientHelloSpec) {
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
}
