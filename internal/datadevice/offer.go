package datadevice

import (
	"io"
	"math/bits"
	"sync"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/wire"
)

// wl_data_offer.error codes.
const (
	offerErrorInvalidFinish     uint32 = 0
	offerErrorInvalidActionMask uint32 = 1
	offerErrorInvalidAction     uint32 = 2
	offerErrorInvalidOffer      uint32 = 3
)

// Offer is the destination-side view of a Source, created fresh
// every time that source is advertised to a client (a selection
// delivery or a drag focus change). Grounded on
// wlr_data_source_send_offer and the wl_data_offer request handlers.
type Offer struct {
	mu sync.Mutex

	resource *registry.Resource
	source   *Source

	dndActions      Action
	preferredAction Action
	inAsk           bool

	sourceDestroy *wire.Listener
}

// SendOffer advertises source to the client owning targetDevice: it
// creates a new wl_data_offer resource on that client, emits
// data_device.data_offer followed by one data_offer.offer per mime
// type, and links the offer and source together as each other's
// current counterpart.
func SendOffer(source *Source, targetDevice *registry.Resource) *Offer {
	resource := registry.NewResource(targetDevice.Client(), "wl_data_offer", targetDevice.Version(), nil)
	offer := &Offer{resource: resource, source: source}
	resource.SetData(offer)
	resource.AddDestroyHook(func(*registry.Resource) { offer.handleResourceDestroy() })
	offer.sourceDestroy = source.OnDestroy(func() { offer.handleSourceDestroyed() })

	targetDevice.Emit(0, "data_offer", resource)
	for _, mime := range source.MimeTypes() {
		resource.Emit(0, "offer", mime)
	}

	source.setOffer(offer)
	source.SetAccepted(false)
	return offer
}

// Resource returns the offer's wire resource.
func (o *Offer) Resource() *registry.Resource { return o.resource }

// isCurrent reports whether o is still its source's live offer.
func (o *Offer) isCurrent() bool {
	o.mu.Lock()
	source := o.source
	o.mu.Unlock()
	return source != nil && source.CurrentOffer() == o
}

// Accept forwards to the source's accept hook and records whether a
// mime type was accepted. Ignored if this offer is no longer the
// source's current one.
func (o *Offer) Accept(serial uint32, mime *string) {
	if !o.isCurrent() {
		return
	}
	o.mu.Lock()
	source := o.source
	o.mu.Unlock()

	m := ""
	if mime != nil {
		m = *mime
	}
	source.Accept(source, serial, m)
	source.SetAccepted(mime != nil)
}

// Receive forwards to the source's send hook, or closes target
// immediately if the offer is stale, so the fd never leaks.
func (o *Offer) Receive(mime string, target io.Closer) {
	if o.isCurrent() {
		o.mu.Lock()
		source := o.source
		o.mu.Unlock()
		source.Send(source, mime, target)
		return
	}
	if target != nil {
		target.Close()
	}
}

// Finish triggers finish notification on the source, valid only while
// this offer is still the source's current one.
func (o *Offer) Finish() {
	if !o.isCurrent() {
		return
	}
	o.mu.Lock()
	source := o.source
	o.mu.Unlock()
	notifySourceFinish(source)
}

// SetActions validates and installs the destination's action mask and
// preference, then re-evaluates the negotiated action.
func (o *Offer) SetActions(mask, preferred Action) error {
	if mask&^allActions != 0 {
		return o.resource.PostError(offerErrorInvalidActionMask, "invalid action mask %#x", mask)
	}
	if preferred != 0 && (preferred&mask == 0 || bits.OnesCount32(uint32(preferred)) > 1) {
		return o.resource.PostError(offerErrorInvalidAction, "invalid action %#x", preferred)
	}

	o.mu.Lock()
	o.dndActions = mask
	o.preferredAction = preferred
	o.mu.Unlock()

	o.updateAction()
	return nil
}

// chooseAction applies the negotiation rule from spec section 4.4: let
// A = source mask ∧ offer mask (each gated to "copy only" below its
// own action-mask's introduction version). None if A is empty. Else,
// when the source is bound to a seat (it has been dragged), the
// compositor's pin if it falls in A. Else the offer's preference
// if it falls in A. Else the lowest set bit of A.
func (o *Offer) chooseAction() Action {
	o.mu.Lock()
	offerActions, preferred := o.dndActions, o.preferredAction
	if !o.resource.SinceVersion(wire.DataOfferActionSince) {
		offerActions = ActionCopy
		preferred = 0
	}
	source := o.source
	o.mu.Unlock()

	sourceActions, compositorAction, bound := source.actionSnapshot()
	if !source.Resource().SinceVersion(wire.DataSourceActionSince) {
		sourceActions = ActionCopy
	}

	available := offerActions & sourceActions
	if available == 0 {
		return ActionNone
	}
	if bound && compositorAction&available != 0 {
		return compositorAction
	}
	if preferred != 0 && preferred&available != 0 {
		return preferred
	}
	return Action(1 << bits.TrailingZeros32(uint32(available)))
}

// updateAction re-evaluates the negotiated action and, if it changed,
// notifies both sides (unless an ask is already pending).
func (o *Offer) updateAction() {
	o.mu.Lock()
	source := o.source
	o.mu.Unlock()
	if source == nil {
		return
	}

	action := o.chooseAction()
	if source.CurrentDndAction() == action {
		return
	}
	source.mu.Lock()
	source.currentDndAction = action
	source.mu.Unlock()

	o.mu.Lock()
	inAsk := o.inAsk
	o.mu.Unlock()
	if inAsk {
		return
	}

	if source.Resource().SinceVersion(wire.DataSourceActionSince) {
		source.Resource().Emit(wire.DataSourceActionSince, "action", action)
	}
	o.resource.Emit(wire.DataOfferActionSince, "action", action)
}

// notifySourceFinish is data_source_notify_finish: a no-op unless the
// source's actions were negotiated, otherwise it emits the decided
// action for a pending ask, emits dnd_finished where supported, and
// clears the source's offer link.
func notifySourceFinish(source *Source) {
	if !source.ActionsSet() {
		return
	}
	offer := source.CurrentOffer()

	inAsk := false
	if offer != nil {
		offer.mu.Lock()
		inAsk = offer.inAsk
		offer.mu.Unlock()
	}
	if inAsk && source.Resource().SinceVersion(wire.DataSourceActionSince) {
		source.Resource().Emit(wire.DataSourceActionSince, "action", source.CurrentDndAction())
	}
	if source.Resource().SinceVersion(wire.DataSourceDndFinishedSince) {
		source.Resource().Emit(wire.DataSourceDndFinishedSince, "dnd_finished")
	}
	source.setOffer(nil)
}

// handleSourceDestroyed unlinks the offer from a source that's gone.
func (o *Offer) handleSourceDestroyed() {
	o.mu.Lock()
	o.source = nil
	o.mu.Unlock()
}

// handleResourceDestroy is the client-drop safety net: if this offer
// is still its source's current one, treat it as a finish for
// clients too old to call wl_data_offer.finish, or as a cancel for
// clients new enough that finish should have been called explicitly.
func (o *Offer) handleResourceDestroy() {
	o.mu.Lock()
	source := o.source
	o.sourceDestroy.Remove()
	o.mu.Unlock()

	if source == nil {
		return
	}
	if source.CurrentOffer() != o {
		return
	}

	if !o.resource.SinceVersion(wire.DataOfferActionSince) {
		notifySourceFinish(source)
	} else if source.Resource().SinceVersion(wire.DataSourceDndFinishedSince) {
		source.Resource().Emit(wire.DataSourceDndFinishedSince, "cancelled")
	}
	source.setOffer(nil)
}
