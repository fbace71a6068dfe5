// Package registry is the boundary abstraction over the wire transport
// (spec section 2, item 1). Every other component treats a *Resource as
// the single fallible I/O primitive: it carries client identity, the
// negotiated interface version, an opaque payload, and a destructor
// hook, and exposes PostError/PostNoMemory/Destroy/Version.
package registry

import (
	"fmt"
	"sync"

	"github.com/wlcore/wlcore/internal/wire"
)

// ClientID identifies a connected client. The registry never dials out
// to the transport itself; it only hands out identities and notifies
// subscribers when one goes away.
type ClientID uint64

// Event is a recorded wire message, kept on the resource so tests can
// inspect what was sent, including the version-gating property tests
// in spec section 8.
type Event struct {
	Name string
	Args []any
}

// EventSink receives wire traffic as it's emitted. Real transports
// implement this to actually serialize messages; it's optional, so
// tests and the console can run without one.
type EventSink interface {
	HandleEvent(r *Resource, name string, args ...any)
}

// ProtocolError is raised when a client violates the wire protocol's
// state machine (spec section 7, taxonomy 1). The transport is
// responsible for disconnecting the client; this type only carries
// enough information for it to do so.
type ProtocolError struct {
	Resource *Resource
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %d on %s: %s", e.Code, e.Resource.Interface(), e.Message)
}

// Resource is a server-side object bound to one client at one
// negotiated version.
type Resource struct {
	mu        sync.Mutex
	client    ClientID
	iface     string
	version   uint32
	data      any
	destroyed bool
	sink      EventSink
	events    []Event
	onDestroy []func(*Resource)
}

// NewResource creates a resource for client at the given negotiated
// version. data is the opaque per-component payload (e.g. *Output,
// *datadevice.Source); components set it themselves.
func NewResource(client ClientID, iface string, version uint32, data any) *Resource {
	return &Resource{client: client, iface: iface, version: version, data: data}
}

func (r *Resource) Client() ClientID     { return r.client }
func (r *Resource) Interface() string    { return r.iface }
func (r *Resource) Version() uint32      { return r.version }
func (r *Resource) Data() any            { r.mu.Lock(); defer r.mu.Unlock(); return r.data }
func (r *Resource) SetData(data any)     { r.mu.Lock(); r.data = data; r.mu.Unlock() }
func (r *Resource) SetSink(s EventSink)  { r.mu.Lock(); r.sink = s; r.mu.Unlock() }
func (r *Resource) Destroyed() bool      { r.mu.Lock(); defer r.mu.Unlock(); return r.destroyed }

// SinceVersion reports whether this resource's negotiated version is
// at least since. Every version-gated emit funnels through here or
// through Emit below, so there is one place fuzzing can target (spec
// section 8's version-gating property).
func (r *Resource) SinceVersion(since uint32) bool {
	return r.Version() >= since
}

// Emit sends a wire event if the resource's version is at least since.
// It returns whether the event was actually sent. Destroyed resources
// never emit.
func (r *Resource) Emit(since uint32, name string, args ...any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed || r.version < since {
		return false
	}
	r.events = append(r.events, Event{Name: name, Args: args})
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		sink.HandleEvent(r, name, args...)
	}
	r.mu.Lock()
	return true
}

// Events returns the wire events emitted on this resource so far, in
// order. Used by tests; not part of the wire protocol itself.
func (r *Resource) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// AddDestroyHook registers fn to run exactly once, when Destroy is
// called. Hooks run in registration order.
func (r *Resource) AddDestroyHook(fn func(*Resource)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	r.onDestroy = append(r.onDestroy, fn)
}

// PostError raises a protocol error on this resource (spec section 7,
// taxonomy 1). The transport, not this package, disconnects the
// client; this only builds and returns the error for the caller to
// propagate. Nothing is stored on the resource.
func (r *Resource) PostError(code uint32, format string, args ...any) *ProtocolError {
	return &ProtocolError{Resource: r, Code: code, Message: fmt.Sprintf(format, args...)}
}

// PostNoMemory raises the standard allocation-failure error (spec
// section 7, taxonomy 2).
func (r *Resource) PostNoMemory() *ProtocolError {
	return &ProtocolError{Resource: r, Code: 0, Message: "no memory"}
}

// Destroy tears the resource down and runs its destructor hooks. Safe
// to call more than once.
func (r *Resource) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	hooks := r.onDestroy
	r.onDestroy = nil
	r.mu.Unlock()

	for _, hook := range hooks {
		hook(r)
	}
}

// Registry assigns client identities and notifies
// components when a client disconnects, so per-client state (seat
// handles, output resource fan-out, data device bindings) can be torn
// down without the registry itself owning that state.
type Registry struct {
	mu           sync.Mutex
	nextClient   uint64
	clients      map[ClientID]struct{}
	onClientGone wire.Signal
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{clients: make(map[ClientID]struct{})}
}

// NewClient registers a new client identity.
func (reg *Registry) NewClient() ClientID {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.nextClient++
	id := ClientID(reg.nextClient)
	reg.clients[id] = struct{}{}
	return id
}

// DisconnectClient removes the client and notifies every subscriber
// (seat handle teardown, output fan-out cleanup, ...) that it is gone.
// Idempotent.
func (reg *Registry) DisconnectClient(id ClientID) {
	reg.mu.Lock()
	if _, ok := reg.clients[id]; !ok {
		reg.mu.Unlock()
		return
	}
	delete(reg.clients, id)
	reg.mu.Unlock()
	reg.onClientGone.Emit(id)
}

// OnClientGone subscribes to client-disconnect notifications.
func (reg *Registry) OnClientGone(fn func(ClientID)) *wire.Listener {
	return reg.onClientGone.Add(func(data any) { fn(data.(ClientID)) })
}

// NewResource creates a resource bound to client. The registry keeps
// no table of resources; it only knows client identities.
func (reg *Registry) NewResource(client ClientID, iface string, version uint32, data any) *Resource {
	return NewResource(client, iface, version, data)
}
