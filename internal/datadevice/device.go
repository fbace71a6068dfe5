package datadevice

import (
	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/seat"
)

// Device is one client's wl_data_device: the object selection
// updates and drag-and-drop enter/leave/motion/drop events arrive on.
type Device struct {
	resource *registry.Resource
	handle   *seat.Handle
}

// Resource returns the device's wire resource.
func (d *Device) Resource() *registry.Resource { return d.resource }

// SendSelection implements seat.DataDeviceSink: it advertises source
// as the clipboard owner, sending a fresh Data Offer when non-nil or
// a bare selection(NULL) otherwise (wlr_seat_handle_send_selection).
func (d *Device) SendSelection(source seat.SelectionSource) {
	if source == nil {
		d.resource.Emit(0, "selection", nil)
		return
	}
	src, ok := source.(*Source)
	if !ok {
		return
	}
	offer := SendOffer(src, d.resource)
	d.resource.Emit(0, "selection", offer.Resource())
}

// Manager is the wl_data_device_manager global: it mints data sources
// and per-client, per-seat data devices.
type Manager struct {
	seat *seat.Seat
}

// NewManager creates a manager bound to one seat. A real compositor
// with several seats runs one Manager per seat.
func NewManager(s *seat.Seat) *Manager {
	return &Manager{seat: s}
}

// CreateDataSource mints a client-owned source with the default
// wire-forwarding hooks.
func (m *Manager) CreateDataSource(client registry.ClientID, version uint32) *Source {
	resource := registry.NewResource(client, "wl_data_source", version, nil)
	return NewClientSource(resource)
}

// GetDataDevice returns handle's data device, creating it if this is
// the first request for this client on this seat. A second request
// for the same handle destroys the stale resource first — wlroots
// treats having two data devices per seat handle as pointless rather
// than erroring.
func (m *Manager) GetDataDevice(client registry.ClientID, version uint32, handle *seat.Handle) *Device {
	if existing, ok := handle.DataDevice().(*Device); ok && existing != nil {
		existing.resource.Destroy()
	}

	resource := registry.NewResource(client, "wl_data_device", version, nil)
	d := &Device{resource: resource, handle: handle}
	resource.SetData(d)
	handle.SetDataDevice(d)
	return d
}

// Seat returns the seat this manager's devices are bound to.
func (m *Manager) Seat() *seat.Seat { return m.seat }
