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

package routing

// Stream scavenges lateral inflow routed to the stream network, applies
// channel routing and baseflow recession, and deposits any unrouted
// overflow back onto the surface store. It runs after the surface router
// and before the vertical balancer; overflow it deposits onto the surface
// store is routed and infiltrated by the surface router on the next
// coupling step.
type Stream interface {
	Advance(tau float64, m *Mesh) error
}

// NoopStream is the core's default Stream: it leaves mesh state untouched,
// satisfying the contract for a basin with no represented channel network.
type NoopStream struct{}

// Advance implements Stream by doing nothing.
func (NoopStream) Advance(tau float64, m *Mesh) error { return nil }
