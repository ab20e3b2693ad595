/*
Copyright © 2017 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package baseflow implements a linear-reservoir channel routing model
// satisfying the routing.Stream interface, for basins that want a
// non-trivial stream component instead of the core's no-op default.
package baseflow

import (
	"math"

	"github.com/watershed/hydrorouting/routing"
)

// Channel holds one patch's channel-storage state and recession
// properties. Patches with Capacity <= 0 are treated as having no channel
// (e.g. hillslope patches far from the stream network) and are skipped.
type Channel struct {
	// K is the linear-reservoir recession constant, per second.
	K float64

	// Capacity is the channel storage above which water is returned to
	// the patch's surface store instead of being routed downstream.
	Capacity float64

	// Storage is the channel's current water storage.
	Storage float64
}

// Router is a reference routing.Stream implementation: each patch may own
// a Channel; Router.Advance drains each channel by linear recession,
// accumulates the recession loss into the basin's running Outflow, and
// deposits storage above Capacity back onto the patch's surface.
type Router struct {
	channels []Channel

	// Outflow accumulates the water that has left the basin through the
	// stream network over the life of the Router.
	Outflow float64
}

// New returns a Router sized for n patches, all initially dry and without
// a channel (Capacity 0).
func New(n int) *Router {
	return &Router{channels: make([]Channel, n)}
}

// SetChannel sets patch i's channel properties.
func (r *Router) SetChannel(i int, c Channel) { r.channels[i] = c }

// Channel returns patch i's current channel state.
func (r *Router) Channel(i int) Channel { return r.channels[i] }

// Deposit adds delta to patch i's channel storage, for routing surface
// runoff captured by the stream network into the channel.
func (r *Router) Deposit(i int, delta float64) { r.channels[i].Storage += delta }

// Advance implements routing.Stream: each channeled patch's storage
// recedes exponentially over tau seconds; the water that recedes leaves
// the basin via Outflow, and any storage above Capacity spills back onto
// the patch's surface.
func (r *Router) Advance(tau float64, m *routing.Mesh) error {
	for i := 0; i < m.N(); i++ {
		c := &r.channels[i]
		if c.Capacity <= 0 {
			continue
		}
		decay := math.Exp(-c.K * tau)
		remaining := c.Storage * decay
		r.Outflow += c.Storage - remaining
		c.Storage = remaining

		if c.Storage > c.Capacity {
			excess := c.Storage - c.Capacity
			c.Storage = c.Capacity
			m.AddSurfaceH2O(i, excess)
		}
	}
	return nil
}
