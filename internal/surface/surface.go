// Package surface models the minimal client-owned surface object that
// Output (cursor surface) and the data device (drag origin/icon,
// keyboard focus) attach themselves to. The wire protocol's full
// surface interface (buffers, damage, subsurfaces) is out of scope
// (spec.md non-goals); this is only the sliver those two collaborators
// need: a role slot and a commit/destroy signal pair.
package surface

import (
	"fmt"
	"sync"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/wire"
)

// Buffer is the pixel payload attached by the most recent commit. Only
// ARGB8888 shm buffers are modeled, matching the original's
// commit_cursor_surface which rejects anything else.
type Buffer struct {
	Width, Height, Stride int32
	Data                  []byte
	// Sx, Sy is the buffer's attach offset relative to the surface
	// origin, used to translate a cursor hotspot when the surface
	// backing it is re-attached at a different offset.
	Sx, Sy int32
}

// Surface is a client object that can take on exactly one role for its
// lifetime. Role is a one-way latch: once set, any attempt to bind a
// different role is a protocol error (mirrors wlroots: a surface's
// role cannot change once assigned).
type Surface struct {
	mu        sync.Mutex
	role      string
	current   *Buffer
	resource  *registry.Resource
	onCommit  wire.Signal
	onDestroy wire.Signal
}

// SetResource records the wire resource this surface is bound to, so
// collaborators that need to know the owning client (drag focus's
// cross-client guard) can read it back via Resource.
func (s *Surface) SetResource(r *registry.Resource) {
	s.mu.Lock()
	s.resource = r
	s.mu.Unlock()
}

// Resource returns the surface's bound wire resource, or nil.
func (s *Surface) Resource() *registry.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resource
}

// New creates a roleless surface.
func New() *Surface {
	return &Surface{}
}

// Role reports the surface's current role, or "" if none has been set
// yet.
func (s *Surface) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// SetRole assigns role if the surface has none yet, or confirms it if
// role already matches. Returns an error if the surface already holds
// a different role, the "wl_surface already has a role" protocol
// error from the original.
func (s *Surface) SetRole(role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role == "" {
		s.role = role
		return nil
	}
	if s.role != role {
		return fmt.Errorf("surface already has role %q, cannot assign %q", s.role, role)
	}
	return nil
}

// HasRole reports whether the surface's role is exactly role. Used by
// callers (set_cursor_surface) that reject non-matching surfaces
// silently rather than erroring, per the original's strcmp check.
func (s *Surface) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role == role
}

// Commit attaches buf as the surface's current content and notifies
// listeners (Output's cursor-surface handler re-uploads the cursor
// image on every commit).
func (s *Surface) Commit(buf *Buffer) {
	s.mu.Lock()
	s.current = buf
	s.mu.Unlock()
	s.onCommit.Emit(buf)
}

// Current returns the most recently committed buffer, or nil.
func (s *Surface) Current() *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnCommit subscribes to commit notifications.
func (s *Surface) OnCommit(fn func(*Buffer)) *wire.Listener {
	return s.onCommit.Add(func(data any) {
		if data == nil {
			fn(nil)
			return
		}
		fn(data.(*Buffer))
	})
}

// OnDestroy subscribes to the surface's destroy notification.
func (s *Surface) OnDestroy(fn func()) *wire.Listener {
	return s.onDestroy.Add(func(any) { fn() })
}

// Destroy notifies subscribers that the surface is gone, so collaborators
// holding a reference to it (an output's cursor surface, a drag's icon
// or origin surface) can unlink.
func (s *Surface) Destroy() {
	s.onDestroy.Emit(nil)
}
