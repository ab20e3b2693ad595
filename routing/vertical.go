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

import "math"

// ZFinalFunc computes the water-table depth below the surface that results
// from a water table starting at depth zInitial and a total-column water
// change of deltaWater (negative for a net loss), given the soil column's exponential porosity-decay profile
// (p0 at the surface, decaying over scale pDecay) and its soilDepth. It is
// injected rather than implemented by the core, matching the reference
// routing's reliance on an externally supplied soil-physics helper.
type ZFinalFunc func(verbose bool, p0, pDecay, soilDepth, zInitial, deltaWater float64) float64

// DefaultZFinal inverts the same exponential porosity-decay storage
// integral used by the infiltration pass to find the water-table depth
// consistent with a change in total column water. Storage available to
// depth z is p0*pDecay*(1-exp(-z/pDecay)) (or p0*z when pDecay is
// effectively infinite, i.e. >= 999.9, matching the infiltration pass's
// convention for a non-decaying profile).
func DefaultZFinal(verbose bool, p0, pDecay, soilDepth, zInitial, deltaWater float64) float64 {
	if p0 <= 0 {
		return zInitial
	}
	storage := func(z float64) float64 {
		if pDecay < 999.9 && pDecay > zeroThreshold {
			return p0 * pDecay * (1.0 - math.Exp(-z/pDecay))
		}
		return p0 * z
	}
	cur := storage(zInitial)
	target := cur - deltaWater // deltaWater <= 0 here, so target >= cur
	if target <= 0 {
		return 0
	}
	var z float64
	if pDecay < 999.9 && pDecay > zeroThreshold {
		ratio := target / (p0 * pDecay)
		if ratio >= 1.0 {
			z = soilDepth
		} else {
			z = -pDecay * math.Log(1.0-ratio)
		}
	} else {
		z = target / p0
	}
	if z < 0 {
		z = 0
	}
	if z > soilDepth {
		z = soilDepth
	}
	return z
}

// subVertical folds this coupling step's infiltration and lateral-flow
// deltas into the soil column's total mass, spills any excess above field
// capacity back onto the surface, and updates the water-table elevation.
func (m *Mesh) subVertical(zfinal ZFinalFunc) {
	parallelFor(m.n, func(i int) {
		m.totH2O[i] += m.infH2O[i] + m.latH2O[i]
		m.totNO3[i] += m.infNO3[i] + m.latNO3[i]
		m.totNH4[i] += m.infNH4[i] + m.latNH4[i]
		m.totDOC[i] += m.infDOC[i] + m.latDOC[i]
		m.totDON[i] += m.infDON[i] + m.latDON[i]

		p := m.patches[i]
		if m.totH2O[i] > m.capH2O[i] {
			fac := (m.totH2O[i] - m.capH2O[i]) / m.totH2O[i]
			m.sfcH2O[i] += fac * m.totH2O[i]
			m.sfcNO3[i] += fac * m.totNO3[i]
			m.sfcNH4[i] += fac * m.totNH4[i]
			m.sfcDOC[i] += fac * m.totDOC[i]
			m.sfcDON[i] += fac * m.totDON[i]
			m.totH2O[i] -= fac * m.totH2O[i]
			m.totNO3[i] -= fac * m.totNO3[i]
			m.totNH4[i] -= fac * m.totNH4[i]
			m.totDOC[i] -= fac * m.totDOC[i]
			m.totDON[i] -= fac * m.totDON[i]
			m.waterz[i] = p.Z
		} else {
			dH2O := m.totH2O[i] - m.capH2O[i]
			m.waterz[i] = p.Z - zfinal(m.cfg.Verbose, m.por0[i], m.porD[i], m.dzsoil[i], 0.0, dH2O)
		}
	})
}
