// Package session holds the process-wide reconnaissance session: the
// shared configuration store, the optional client handles, and the
// resolved-broker display label. The session has an explicit lifecycle
// (created empty, mutated by connect/disconnect, destroyed with the
// process) and can be torn down and recreated repeatedly without
// restarting.
package session

import (
	"errors"
	"sync"

	"github.com/giantswarm/kafka-recon/internal/config"
	"github.com/giantswarm/kafka-recon/internal/kafka"
)

// NotConnectedLabel is the broker display sentinel while no handle is
// live.
const NotConnectedLabel = "not connected"

// ErrBusy reports an operation attempted while another session operation
// is in flight. Reconnecting while a discovery call is mid-flight is
// undefined, so concurrent callers are rejected rather than queued.
var ErrBusy = errors.New("another session operation is in flight")

// Session is the mutable context shared by the command handlers. The two
// handles are independent: either, both, or neither may be present, and
// every consumer of a handle must handle the nil case.
type Session struct {
	// ops serializes connect/disconnect/discover; field access below is
	// guarded separately so accessors work inside an acquired operation.
	ops sync.Mutex

	mu       sync.RWMutex
	config   *config.Store
	admin    kafka.AdminClient
	consumer kafka.ConsumerClient
	broker   string
}

// Option customizes a new Session.
type Option func(*Session) error

// WithConfigStore seeds the session with an existing configuration store.
func WithConfigStore(store *config.Store) Option {
	return func(s *Session) error {
		if store == nil {
			return errors.New("config store must not be nil")
		}
		s.config = store
		return nil
	}
}

// New returns an empty session: no handles, an empty configuration store
// unless one is supplied, and the unconnected broker label.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		config: config.NewStore(),
		broker: NotConnectedLabel,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Acquire marks the session busy for the duration of one operation. It
// fails immediately with ErrBusy instead of blocking.
func (s *Session) Acquire() error {
	if !s.ops.TryLock() {
		return ErrBusy
	}
	return nil
}

// Release ends the operation started by a successful Acquire.
func (s *Session) Release() {
	s.ops.Unlock()
}

// Config returns the shared configuration store. Callers mutate its
// entries but never replace the store itself.
func (s *Session) Config() *config.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Admin returns the administrative handle, or nil when absent.
func (s *Session) Admin() kafka.AdminClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// Consumer returns the consumer handle, or nil when absent.
func (s *Session) Consumer() kafka.ConsumerClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consumer
}

// Broker returns the display label for the currently targeted broker.
func (s *Session) Broker() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.broker
}

// Connected reports whether at least one handle is present.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin != nil || s.consumer != nil
}

// ApplyConnect folds a connect outcome into the session. Only handles
// that were actually built replace their slots, so a partial success
// keeps any prior sibling handle intact.
func (s *Session) ApplyConnect(result kafka.ConnectResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Admin != nil {
		s.admin = result.Admin
	}
	if result.Consumer != nil {
		s.consumer = result.Consumer
	}
	if result.Broker != "" {
		s.broker = result.Broker
	}
}

// ClearHandles drops both handles and resets the broker label to the
// unconnected sentinel. Callers are responsible for closing the handles
// first.
func (s *Session) ClearHandles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = nil
	s.consumer = nil
	s.broker = NotConnectedLabel
}
