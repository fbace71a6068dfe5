package datadevice

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/seat"
	"github.com/wlcore/wlcore/internal/surface"
)

func newSourceResource(client registry.ClientID, version uint32) (*Source, *registry.Resource) {
	r := registry.NewResource(client, "wl_data_source", version, nil)
	return NewClientSource(r), r
}

func newOfferDevice(client registry.ClientID, version uint32) *registry.Resource {
	return registry.NewResource(client, "wl_data_device", version, nil)
}

func TestSetActionsRejectsInvalidMask(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	err := src.SetActions(Action(1 << 5))
	assert.Error(t, err)
}

func TestSetActionsCannotBeCalledTwice(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy))
	assert.Error(t, src.SetActions(ActionMove))
}

func TestSetActionsLockedOutAfterBoundToSeat(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	src.setSeat(&seat.Handle{})
	assert.Error(t, src.SetActions(ActionCopy))
}

func TestChooseActionIntersectsSourceAndOfferMasks(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy|ActionMove))

	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)
	require.NoError(t, offer.SetActions(ActionMove|ActionAsk, 0))

	assert.Equal(t, ActionMove, offer.chooseAction())
}

func TestChooseActionNoneWhenMasksDisjoint(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy))

	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)
	require.NoError(t, offer.SetActions(ActionMove, 0))

	assert.Equal(t, ActionNone, offer.chooseAction())
}

func TestChooseActionCompositorPinWins(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy|ActionMove))
	src.SetCompositorAction(ActionMove)
	src.setSeat(&seat.Handle{})

	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)
	require.NoError(t, offer.SetActions(ActionCopy|ActionMove, ActionCopy))

	assert.Equal(t, ActionMove, offer.chooseAction())
}

func TestChooseActionPreferredWinsOverLowestBit(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy|ActionMove))

	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)
	require.NoError(t, offer.SetActions(ActionCopy|ActionMove, ActionMove))

	assert.Equal(t, ActionMove, offer.chooseAction())
}

func TestChooseActionFallsBackToLowestBit(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy|ActionMove))

	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)
	require.NoError(t, offer.SetActions(ActionCopy|ActionMove, 0))

	assert.Equal(t, ActionCopy, offer.chooseAction())
}

func TestChooseActionPreVersion3SourceForcedToCopyOnly(t *testing.T) {
	src, _ := newSourceResource(1, 2) // pre-action-negotiation version
	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)
	require.NoError(t, offer.SetActions(ActionMove, 0))

	// pre-v3 sources are treated as copy-only regardless of their own
	// mask; the offer only advertises Move, so the intersection is empty
	assert.Equal(t, ActionNone, offer.chooseAction())
}

func TestSendOfferEmitsDataOfferThenOnePerMime(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	src.Offer("text/plain")
	src.Offer("text/uri-list")

	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)

	events := dev.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "data_offer", events[0].Name)

	offerEvents := offer.Resource().Events()
	require.Len(t, offerEvents, 2)
	assert.Equal(t, "offer", offerEvents[0].Name)
	assert.Equal(t, "text/plain", offerEvents[0].Args[0])
	assert.Equal(t, "text/uri-list", offerEvents[1].Args[0])
}

func TestOfferAcceptForwardsToSourceAndRecordsAccepted(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)

	mime := "text/plain"
	offer.Accept(1, &mime)
	assert.True(t, src.Accepted())

	offer.Accept(2, nil)
	assert.False(t, src.Accepted())
}

func TestOfferAcceptIgnoredWhenStale(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	dev := newOfferDevice(2, 3)
	stale := SendOffer(src, dev)
	_ = SendOffer(src, dev) // supersedes stale as the source's current offer

	mime := "text/plain"
	stale.Accept(1, &mime)
	assert.False(t, src.Accepted())
}

type closeTracker struct{ closed bool }

func (c *closeTracker) Close() error { c.closed = true; return nil }

func TestOfferReceiveClosesTargetWhenStale(t *testing.T) {
	src, _ := newSourceResource(1, 3)
	dev := newOfferDevice(2, 3)
	stale := SendOffer(src, dev)
	_ = SendOffer(src, dev)

	target := &closeTracker{}
	stale.Receive("text/plain", target)
	assert.True(t, target.closed)
}

func TestOfferReceiveForwardsToSourceSendWhenCurrent(t *testing.T) {
	src, srcResource := newSourceResource(1, 3)
	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)

	var target io.Closer = &closeTracker{}
	offer.Receive("text/plain", target)

	events := srcResource.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "send", events[0].Name)
}

func TestNotifySourceFinishNoopWithoutActionsSet(t *testing.T) {
	src, srcResource := newSourceResource(1, 3)
	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)

	offer.Finish()
	assert.Empty(t, srcResource.Events())
}

func TestNotifySourceFinishEmitsDndFinishedWhenActionsSet(t *testing.T) {
	src, srcResource := newSourceResource(1, 3)
	require.NoError(t, src.SetActions(ActionCopy))
	dev := newOfferDevice(2, 3)
	offer := SendOffer(src, dev)

	offer.Finish()

	events := srcResource.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	assert.Contains(t, names, "dnd_finished")
	assert.Nil(t, src.CurrentOffer())
}

func TestGetDataDeviceReplacesStaleDevice(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)
	handle := s.HandleFor(1)

	first := mgr.GetDataDevice(1, 3, handle)
	second := mgr.GetDataDevice(1, 3, handle)

	assert.True(t, first.Resource().Destroyed())
	assert.False(t, second.Resource().Destroyed())
	assert.Same(t, second, handle.DataDevice())
}

func TestDeviceSendSelectionWithNilSourceEmitsBareSelection(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)
	handle := s.HandleFor(1)
	dev := mgr.GetDataDevice(1, 3, handle)

	dev.SendSelection(nil)

	events := dev.Resource().Events()
	require.Len(t, events, 1)
	assert.Equal(t, "selection", events[0].Name)
	assert.Nil(t, events[0].Args[0])
}

func TestStartDragRejectsWithoutMatchingPointerState(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)
	handle := s.HandleFor(1)
	src, _ := newSourceResource(1, 3)
	origin := surface.New()

	err := mgr.StartDrag(handle, src, origin, nil, 1)
	require.NoError(t, err) // silent no-op, not an error
	assert.Nil(t, src.BoundSeat())
}

func TestStartDragBindsSourceOnAcceptedConditions(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)
	handle := s.HandleFor(1)
	origin := surface.New()
	originResource := registry.NewResource(1, "wl_surface", 1, nil)
	origin.SetResource(originResource)

	s.PointerEnter(origin, 0, 0)
	s.PointerButton(0, 1, 1, 7) // press: button_count=1, grab_serial=7

	src, _ := newSourceResource(1, 3)
	err := mgr.StartDrag(handle, src, origin, nil, 7)
	require.NoError(t, err)
	assert.Same(t, handle, src.BoundSeat())
}

func TestStartDragAssignsIconRoleAndRejectsConflict(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)
	handle := s.HandleFor(1)
	origin := surface.New()
	origin.SetResource(registry.NewResource(1, "wl_surface", 1, nil))
	s.PointerEnter(origin, 0, 0)
	s.PointerButton(0, 1, 1, 1)

	icon := surface.New()
	require.NoError(t, icon.SetRole("xdg_toplevel"))

	src, _ := newSourceResource(1, 3)
	err := mgr.StartDrag(handle, src, origin, icon, 1)
	assert.Error(t, err)
}

func TestDragSetFocusEmitsEnterOnDestinationDevice(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)

	originHandle := s.HandleFor(1)
	origin := surface.New()
	origin.SetResource(registry.NewResource(1, "wl_surface", 1, nil))
	s.PointerEnter(origin, 0, 0)
	s.PointerButton(0, 1, 1, 1)

	src, _ := newSourceResource(1, 3)
	src.Offer("text/plain")
	require.NoError(t, mgr.StartDrag(originHandle, src, origin, nil, 1))

	destHandle := s.HandleFor(2)
	destDevice := mgr.GetDataDevice(2, 3, destHandle)
	target := surface.New()
	target.SetResource(registry.NewResource(2, "wl_surface", 1, nil))

	s.PointerEnter(target, 0.5, 0.5) // forwarded through the active (drag) pointer grab

	events := destDevice.Resource().Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"data_offer", "enter"}, names)
}

func TestDragButtonReleaseWithNoAcceptanceEndsDragAsCancelled(t *testing.T) {
	s := seat.New()
	mgr := NewManager(s)
	originHandle := s.HandleFor(1)
	origin := surface.New()
	origin.SetResource(registry.NewResource(1, "wl_surface", 1, nil))
	s.PointerEnter(origin, 0, 0)
	s.PointerButton(0, 1, 1, 1)

	src, srcResource := newSourceResource(1, 3)
	require.NoError(t, mgr.StartDrag(originHandle, src, origin, nil, 1))

	s.PointerButton(0, 1, 0, 1) // release: drop not accepted, drag ends

	events := srcResource.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	assert.Contains(t, names, "cancelled")
}
