// Package wire holds the small pieces shared by every protocol object:
// a signal/listener primitive for cross-reference teardown, the wire's
// fixed-point coordinate encoding, and the since-version table that
// gates event emission.
package wire

import "sync"

// Signal is a minimal observer list, the Go translation of wlroots'
// wl_signal/wl_listener pair. A Listener is the token returned by Add;
// removing it is the only way to stop receiving notifications, which
// keeps teardown of cross-linked objects (source<->offer, drag<->focus
// handle, output<->cursor surface) explicit and symmetric.
type Signal struct {
	mu        sync.Mutex
	listeners []*Listener
}

// Listener is a subscription handle returned by Signal.Add.
type Listener struct {
	notify func(data any)
	signal *Signal
}

// Add registers notify to run on every future Emit and returns the
// token needed to unsubscribe.
func (s *Signal) Add(notify func(data any)) *Listener {
	l := &Listener{notify: notify, signal: s}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
	return l
}

// Remove unsubscribes the listener. Safe to call more than once.
func (l *Listener) Remove() {
	if l == nil || l.signal == nil {
		return
	}
	s := l.signal
	s.mu.Lock()
	for i, other := range s.listeners {
		if other == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	l.signal = nil
}

// Emit runs every currently-registered listener with data. Listeners
// are snapshotted first so a listener that removes itself (or another
// listener) during emission cannot corrupt the iteration.
func (s *Signal) Emit(data any) {
	s.mu.Lock()
	snapshot := make([]*Listener, len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.notify(data)
	}
}
