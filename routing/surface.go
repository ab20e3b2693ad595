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

// zeroThreshold is the reference routing's ZERO: below this, a quantity is
// treated as zero for the purpose of guarding a division.
const zeroThreshold = 1.0e-6

// sfcRouting advances overland kinematic-wave flow and Green-Ampt-style
// infiltration across the mesh for tstep seconds, using its own internal
// Courant-stable sub-stepping (independent of the subsurface coupling
// step). It accumulates infiltrated mass into the mesh's inf* columns for
// the vertical balancer to consume afterward.
func (m *Mesh) sfcRouting(tstep float64) {
	parallelFor(m.n, func(i int) {
		m.infH2O[i] = 0
		m.infNO3[i] = 0
		m.infNH4[i] = 0
		m.infDOC[i] = 0
		m.infDON[i] = 0
	})

	outH2O := make([]float64, m.n)
	outNO3 := make([]float64, m.n)
	outNH4 := make([]float64, m.n)
	outDOC := make([]float64, m.n)
	outDON := make([]float64, m.n)

	tfinal := tstep - epsilon
	t := 0.0
	for t < tfinal {
		// Drainage-rate pass. A patch with no surface-drainage neighbors
		// has nowhere to send water, so it has no outflow.
		cMax := parallelMax(m.n, func(i int) float64 {
			hh := m.sfcH2O[i] - m.retdep[i]
			if hh <= 0 || len(m.patches[i].SurfaceDrainage) == 0 {
				outH2O[i], outNO3[i], outNH4[i], outDOC[i], outDON[i] = 0, 0, 0, 0, 0
				return 0
			}
			vel := m.sfcknl[i] * math.Pow(hh, twoThd)
			div := hh / safeDiv(m.sfcH2O[i])
			outH2O[i] = vel * hh
			outNO3[i] = vel * div * m.sfcNO3[i]
			outNH4[i] = vel * div * m.sfcNH4[i]
			outDOC[i] = vel * div * m.sfcDOC[i]
			outDON[i] = vel * div * m.sfcDON[i]
			return vel
		})
		cMax = math.Max(cMax, couMax/tstep)

		dt := math.Min(couMax/cMax, tstep-t)
		if dt <= 0 {
			break
		}

		// Update + infiltration pass.
		parallelFor(m.n, func(i int) {
			sumH2O := -outH2O[i]
			sumNO3 := -outNO3[i]
			sumNH4 := -outNH4[i]
			sumDOC := -outDOC[i]
			sumDON := -outDON[i]
			for idx, k := range m.sfcndxi[i] {
				gam := m.sfcgam[i][idx]
				sumH2O += gam * outH2O[k]
				sumNO3 += gam * outNO3[k]
				sumNH4 += gam * outNH4[k]
				sumDOC += gam * outDOC[k]
				sumDON += gam * outDON[k]
			}
			sumH2O += m.canH2O[i]
			sumNO3 += m.canNO3[i]
			sumNH4 += m.canNH4[i]
			sumDOC += m.canDOC[i]
			sumDON += m.canDON[i]

			m.sfcH2O[i] += sumH2O * dt
			m.sfcNO3[i] += sumNO3 * dt
			m.sfcNH4[i] += sumNH4 * dt
			m.sfcDOC[i] += sumDOC * dt
			m.sfcDON[i] += sumDON * dt
			if m.sfcH2O[i] < 0 {
				m.sfcH2O[i] = 0
			}

			m.infiltrate(i, dt)
		})

		t += dt
	}
}

// infiltrate applies Green-Ampt-style infiltration to patch i over dt
// seconds, moving water (and a matching fraction of each solute) from the
// surface store into the accumulated infiltration columns.
func (m *Mesh) infiltrate(i int, dt float64) {
	if m.rootzs[i] >= 1.0 || m.ksat0[i] <= zeroThreshold || m.sfcH2O[i] <= zeroThreshold {
		return
	}
	p := m.patches[i]
	z := p.Z - m.waterz[i]
	if z <= 0 {
		return
	}

	var ksat, poro float64
	if m.mzV[i] > zeroThreshold {
		ksat = m.mzV[i] * m.ksat0[i] * (1.0 - math.Exp(-z/m.mzV[i])) / z
	} else {
		ksat = m.ksat0[i]
	}
	if m.porD[i] < 999.9 {
		poro = m.porD[i] * m.por0[i] * (1.0 - math.Exp(-z/m.porD[i])) / z
	} else {
		poro = m.por0[i]
	}

	theta := m.rootzs[i] * poro
	psiF := 0.76 * m.psiair[i]
	sp := math.Sqrt(2.0 * ksat * psiF)
	intensity := m.sfcH2O[i] / dt

	var tp float64
	if intensity > ksat {
		tp = ksat * psiF * (poro - theta) / (intensity * (intensity - ksat))
	} else {
		tp = dt
	}

	var delta float64
	if dt <= tp {
		delta = m.ksatv[i] * m.sfcH2O[i]
	} else {
		root := math.Sqrt(ksat)
		cube := root * root * root / 3.0
		delta = sp*math.Sqrt(dt-tp) + cube + tp*m.sfcH2O[i]
		delta = m.ksatv[i] * math.Min(delta, m.sfcH2O[i])
	}

	afac := delta / m.sfcH2O[i]
	m.infH2O[i] += delta
	m.sfcH2O[i] -= delta
	m.infNO3[i] += afac * m.sfcNO3[i]
	m.sfcNO3[i] -= afac * m.sfcNO3[i]
	m.infNH4[i] += afac * m.sfcNH4[i]
	m.sfcNH4[i] -= afac * m.sfcNH4[i]
	m.infDOC[i] += afac * m.sfcDOC[i]
	m.sfcDOC[i] -= afac * m.sfcDOC[i]
	m.infDON[i] += afac * m.sfcDON[i]
	m.sfcDON[i] -= afac * m.sfcDON[i]
}
