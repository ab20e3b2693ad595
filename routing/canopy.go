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

// Canopy produces the rates at which water and solutes reach the surface
// from the canopy over the coupling step of length tau. Implementations
// write per-second rates into the mesh's can* working columns; the surface
// router adds them into its own mass balance on the same step.
type Canopy interface {
	Advance(tau float64, m *Mesh) error
}

// NoopCanopy is the core's default Canopy: it zero-fills every species'
// canopy-input rate, matching a basin with no canopy represented.
type NoopCanopy struct{}

// Advance implements Canopy by zeroing all canopy input rates.
func (NoopCanopy) Advance(tau float64, m *Mesh) error {
	parallelFor(m.n, func(i int) {
		m.canH2O[i] = 0
		m.canNO3[i] = 0
		m.canNH4[i] = 0
		m.canDOC[i] = 0
		m.canDON[i] = 0
	})
	return nil
}
