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

// Package snowcanopy implements a single-stratum snow interception model
// satisfying the routing.Canopy interface, for basins that want a
// non-trivial canopy component instead of the core's zero-filling default.
package snowcanopy

import (
	"math"

	"github.com/watershed/hydrorouting/routing"
)

// Stratum holds the canopy properties of one patch's vegetation (or lack
// of it) needed to partition incoming snowfall between interception and
// throughfall.
type Stratum struct {
	// GapFraction is the fraction of sky visible through the canopy; 1
	// limits rain/snow interception accordingly.
	GapFraction float64

	// AllPAI is the stratum's total plant area index (leaf + stem),
	// m2 plant / m2 ground.
	AllPAI float64

	// SpecificSnowCapacity is the maximum snow storable per unit plant
	// area (or per unit ground area for a non-vegetated stratum).
	SpecificSnowCapacity float64

	// NonVeg marks a stratum with no vegetation, which intercepts snow up
	// to its capacity without the gap-fraction or PAI scaling.
	NonVeg bool

	// SnowStored is the stratum's current intercepted-snow storage.
	SnowStored float64
}

// Router is a reference routing.Canopy implementation: each patch has a
// Stratum and an external snowfall rate; Router.Advance computes the
// potential interception for the step and passes the remainder through to
// the surface as a throughfall rate.
type Router struct {
	strata  []Stratum
	snowfall []float64 // per-second snowfall rate, set by SetSnowfallRate
}

// New returns a Router sized for n patches, all initially bare ground with
// no snow.
func New(n int) *Router {
	return &Router{strata: make([]Stratum, n), snowfall: make([]float64, n)}
}

// SetStratum sets patch i's canopy properties.
func (r *Router) SetStratum(i int, s Stratum) { r.strata[i] = s }

// Stratum returns patch i's current canopy properties, including its
// running snow-storage state.
func (r *Router) Stratum(i int) Stratum { return r.strata[i] }

// SetSnowfallRate sets patch i's snowfall rate in meters per second for
// the next Advance call.
func (r *Router) SetSnowfallRate(i int, rate float64) { r.snowfall[i] = rate }

// Advance implements routing.Canopy: it computes the potential snow
// interception for each patch over tau seconds, adds it to the stratum's
// running storage, and passes the remainder through as an H2O rate. It
// carries no solutes, matching a pure precipitation input.
func (r *Router) Advance(tau float64, m *routing.Mesh) error {
	for i := 0; i < m.N(); i++ {
		s := &r.strata[i]
		snow := r.snowfall[i] * tau

		interceptionCoef := 1.0 - s.GapFraction
		var potential float64
		if s.NonVeg {
			potential = math.Min(snow, s.SpecificSnowCapacity-s.SnowStored)
		} else {
			potential = math.Min(interceptionCoef*snow, s.AllPAI*s.SpecificSnowCapacity-s.SnowStored)
		}
		potential = math.Max(potential, 0)

		s.SnowStored += potential
		throughfall := snow - potential

		var rate float64
		if tau > 0 {
			rate = throughfall / tau
		}
		m.SetCanopyRates(i, rate, 0, 0, 0, 0)
	}
	return nil
}
