// Package identity tracks the active user identity for the process and fans
// identity changes out to the per-user stores.
package identity

import "sync"

// Anonymous is the stable sentinel identity used when no user is signed in.
// Nothing belonging to the anonymous identity is ever persisted remotely.
const Anonymous = "anonymous"

// IsAnonymous reports whether userID is the guest sentinel.
func IsAnonymous(userID string) bool {
	return userID == "" || userID == Anonymous
}

// Listener receives the new active identity. Listeners are invoked
// synchronously on the goroutine that changed the identity and must absorb
// redundant notifications for an unchanged identity themselves.
type Listener func(userID string)

// Session holds the active identity. It replaces the ambient auth-state
// listener of the original design with an explicit subscription interface.
type Session struct {
	mu        sync.Mutex
	active    string
	listeners map[int]Listener
	nextID    int
}

// NewSession creates a session starting as anonymous.
func NewSession() *Session {
	return &Session{
		active:    Anonymous,
		listeners: make(map[int]Listener),
	}
}

// Current returns the active identity.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Set switches the active identity and notifies all listeners, including when
// the identity is unchanged. There is no debouncing here.
func (s *Session) Set(userID string) {
	if userID == "" {
		userID = Anonymous
	}

	s.mu.Lock()
	s.active = userID
	fns := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}

// Clear resets the session to anonymous.
func (s *Session) Clear() {
	s.Set(Anonymous)
}

// Subscribe registers a listener and returns a cancel function.
func (s *Session) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
