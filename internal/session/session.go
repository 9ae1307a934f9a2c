// Package session exposes the cached authorization code and session
// identifier as reactive values persisted in a key-value store.
package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/asad/localsession/internal/kv"
	"github.com/asad/localsession/internal/logging"
	"github.com/asad/localsession/internal/state"
)

// Fixed store keys. Existing clients read these names; do not rename them.
const (
	AuthorizationCodeKey = "gh_code"
	SessionIDKey         = "fp_session"
)

// ErrUnknownEntry is returned by Lookup for names other than those in Entries.
var ErrUnknownEntry = errors.New("session: unknown entry")

// LocalSession holds the authorization code and session identifier.
// A nil *string is the null value.
type LocalSession struct {
	code      *state.Value[*string]
	sessionID *state.Value[*string]
}

// Option configures a LocalSession.
type Option func(*options)

type options struct {
	logger logging.Logger
	hub    *state.Hub
}

// WithLogger sets the logger passed down to the underlying values.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHub shares change notices with other bindings on the same store.
func WithHub(h *state.Hub) Option {
	return func(o *options) { o.hub = h }
}

// New binds both values to store. Store read errors are returned unchanged.
func New(store kv.Store, opts ...Option) (*LocalSession, error) {
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	valueOpts := []state.Option{state.WithLogger(o.logger)}
	if o.hub != nil {
		valueOpts = append(valueOpts, state.WithHub(o.hub))
	}

	code, err := state.Bind[*string](store, AuthorizationCodeKey, nil, valueOpts...)
	if err != nil {
		return nil, err
	}
	sessionID, err := state.Bind[*string](store, SessionIDKey, nil, valueOpts...)
	if err != nil {
		code.Close()
		return nil, err
	}

	return &LocalSession{code: code, sessionID: sessionID}, nil
}

// AuthorizationCode returns a copy of the cached authorization code, or nil.
func (s *LocalSession) AuthorizationCode() *string {
	return clone(s.code.Get())
}

// SetAuthorizationCode stores v; nil is persisted as null.
func (s *LocalSession) SetAuthorizationCode(v *string) error {
	return s.code.Set(v)
}

// ClearAuthorizationCode resets the code to nil and removes its entry.
func (s *LocalSession) ClearAuthorizationCode() error {
	return s.code.Remove()
}

// OnAuthorizationCodeChange calls fn after every change of the code.
func (s *LocalSession) OnAuthorizationCodeChange(fn func(*string)) (unsubscribe func()) {
	return s.code.Subscribe(func(v *string) { fn(clone(v)) })
}

// SessionID returns a copy of the cached session identifier, or nil.
func (s *LocalSession) SessionID() *string {
	return clone(s.sessionID.Get())
}

// SetSessionID stores v; nil is persisted as null.
func (s *LocalSession) SetSessionID(v *string) error {
	return s.sessionID.Set(v)
}

// ClearSessionID resets the session identifier to nil and removes its entry.
func (s *LocalSession) ClearSessionID() error {
	return s.sessionID.Remove()
}

// OnSessionIDChange calls fn after every change of the session identifier.
func (s *LocalSession) OnSessionIDChange(fn func(*string)) (unsubscribe func()) {
	return s.sessionID.Subscribe(func(v *string) { fn(clone(v)) })
}

// Close detaches both values from the hub, if any.
func (s *LocalSession) Close() {
	s.code.Close()
	s.sessionID.Close()
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// clone keeps callers from writing through to the in-memory value.
func clone(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
