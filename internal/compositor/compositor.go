// Package compositor wires the Resource Registry, Output, Output
// Layout, Seat, and Data Device components together into the
// library's single public entry point.
package compositor

import (
	"github.com/wlcore/wlcore/internal/datadevice"
	"github.com/wlcore/wlcore/internal/layout"
	"github.com/wlcore/wlcore/internal/output"
	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/seat"
)

// Compositor owns one registry, one output layout, and one seat with
// its data device manager. Most embedders need exactly one of these;
// multi-seat setups construct additional seat.Seat/datadevice.Manager
// pairs directly and register their outputs with the same layout.
type Compositor struct {
	Registry *registry.Registry
	Layout   *layout.Layout
	Seat     *seat.Seat
	Data     *datadevice.Manager

	outputs map[*output.Output]struct{}
}

// New creates a compositor with an empty registry, layout, seat, and
// data device manager.
func New() *Compositor {
	s := seat.New()
	c := &Compositor{
		Registry: registry.New(),
		Layout:   layout.New(),
		Seat:     s,
		Data:     datadevice.NewManager(s),
		outputs:  make(map[*output.Output]struct{}),
	}
	c.Registry.OnClientGone(func(client registry.ClientID) {
		c.Seat.UnbindClient(client)
	})
	return c
}

// AddOutput creates the output's global and pins or auto-places it in
// the shared layout.
func (c *Compositor) AddOutput(out *output.Output, auto bool, x, y int32) {
	out.CreateGlobal()
	c.outputs[out] = struct{}{}
	if auto {
		c.Layout.AddAuto(out)
	} else {
		c.Layout.Add(out, x, y)
	}
}

// RemoveOutput tears down an output's global and removes it from the
// layout.
func (c *Compositor) RemoveOutput(out *output.Output) {
	delete(c.outputs, out)
	c.Layout.Remove(out)
	out.DestroyGlobal()
	out.Destroy()
}

// Outputs returns every output currently registered with the
// compositor.
func (c *Compositor) Outputs() []*output.Output {
	outs := make([]*output.Output, 0, len(c.outputs))
	for o := range c.outputs {
		outs = append(outs, o)
	}
	return outs
}
