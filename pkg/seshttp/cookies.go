package seshttp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/barapp/sesh/pkg/domain"
)

// MinHashKeyLength is the shortest HMAC key the cookie transport accepts.
const MinHashKeyLength = 32

// CookieConfig describes where cookies live and how their values are protected.
type CookieConfig struct {
	Domain string
	Path   string
	// Prefix is prepended to every cookie name.
	Prefix string
	Secure bool

	// HashKey signs cookie values. BlockKey, if set, also encrypts them
	// and must be 16, 24 or 32 bytes long.
	HashKey  []byte
	BlockKey []byte
}

// CookieTransport produces a cookie jar for every request.
type CookieTransport struct {
	config CookieConfig
	codec  *securecookie.SecureCookie
}

// NewCookieTransport returns a CookieTransport
func NewCookieTransport(config CookieConfig) (*CookieTransport, error) {
	if len(config.HashKey) < MinHashKeyLength {
		return nil, fmt.Errorf("%w: cookie hash key must be at least %d bytes, got %d", domain.ErrInvalidArgument, MinHashKeyLength, len(config.HashKey))
	}

	switch len(config.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: cookie block key must be 16, 24 or 32 bytes, got %d", domain.ErrInvalidArgument, len(config.BlockKey))
	}

	if config.Path == "" {
		config.Path = "/"
	}

	var blockKey []byte
	if len(config.BlockKey) > 0 {
		blockKey = config.BlockKey
	}

	codec := securecookie.New(config.HashKey, blockKey)
	// Expiry is enforced by the session row, not by the cookie signature.
	codec.MaxAge(0)

	return &CookieTransport{
		config: config,
		codec:  codec,
	}, nil
}

// ForRequest returns the jar for one request and its response.
func (t *CookieTransport) ForRequest(w http.ResponseWriter, r *http.Request) *Jar {
	return &Jar{
		transport: t,
		w:         w,
		r:         r,
		written:   map[string]*string{},
	}
}

// AddToRequest attaches an encoded cookie to an outgoing request. It is meant for tests and clients.
func (t *CookieTransport) AddToRequest(r *http.Request, name, value string) error {
	cookie, err := t.cookie(name, value, time.Time{})
	if err != nil {
		return err
	}
	r.AddCookie(cookie)
	return nil
}

func (t *CookieTransport) cookie(name, value string, expires time.Time) (*http.Cookie, error) {
	fullName := t.config.Prefix + name

	encoded, err := t.codec.Encode(fullName, value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookie %s: %w", fullName, err)
	}

	// LESSONS:
	// The domain must be "" for localhost to work
	// Secure must be false for http to work
	return &http.Cookie{
		Name:     fullName,
		Value:    encoded,
		Domain:   t.config.Domain,
		Path:     t.config.Path,
		Expires:  expires,
		Secure:   t.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Jar implements domain.CookieJar on top of one request and its response.
type Jar struct {
	transport *CookieTransport
	w         http.ResponseWriter
	r         *http.Request

	// written holds the cookies set (non-nil) or deleted (nil) during this request.
	written map[string]*string
}

var _ domain.CookieJar = (*Jar)(nil)

func (j *Jar) HasCookie(name string) bool {
	if value, ok := j.written[name]; ok {
		return value != nil
	}

	_, err := j.r.Cookie(j.transport.config.Prefix + name)
	return err == nil
}

func (j *Jar) GetCookie(name string) (string, bool) {
	if value, ok := j.written[name]; ok {
		if value == nil {
			return "", false
		}
		return *value, true
	}

	fullName := j.transport.config.Prefix + name
	cookie, err := j.r.Cookie(fullName)
	if err != nil {
		return "", false
	}

	var value string
	if err := j.transport.codec.Decode(fullName, cookie.Value, &value); err != nil {
		return "", false
	}
	return value, true
}

// SetCookie writes the cookie to the response. It fails when the value
// cannot be encoded, and then writes nothing.
func (j *Jar) SetCookie(name, value string, expires time.Time) error {
	cookie, err := j.transport.cookie(name, value, expires)
	if err != nil {
		return err
	}

	http.SetCookie(j.w, cookie)
	j.written[name] = &value
	return nil
}

// DeleteCookie expires the cookie in the browser. It writes nothing when
// neither the request nor this response carries the cookie.
func (j *Jar) DeleteCookie(name string) {
	if !j.HasCookie(name) {
		return
	}

	http.SetCookie(j.w, &http.Cookie{
		Name:     j.transport.config.Prefix + name,
		Value:    "",
		Domain:   j.transport.config.Domain,
		Path:     j.transport.config.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   j.transport.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	j.written[name] = nil
}
