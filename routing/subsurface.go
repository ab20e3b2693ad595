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

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// subRouting advances lateral subsurface flow across the mesh's
// subsurface-drainage graph for at most tauRemaining seconds, returning the
// actual coupling step used. The step is the Courant-stable step for this
// pass: min(couMax/cMax, tauRemaining), capped at cplMax.
func (m *Mesh) subRouting(tauRemaining float64) float64 {
	trans := make([]float64, m.n)

	// Pass 1: transmissivity, integrated against within-patch water-table
	// variability when a nonzero roughness scale is available.
	parallelFor(m.n, func(i int) {
		p := m.patches[i]
		profile := p.TransmissivityProfile
		if len(profile) == 0 {
			return
		}
		satDeficit := m.capH2O[i] - m.totH2O[i]
		if m.pscale[i] > 0 && m.dzsoil[i] > 0 {
			var sampled [9]float64
			for q := 0; q < 9; q++ {
				nm := clampInt(int(math.Round((satDeficit+normalTable[q]*m.pscale[i])/m.dzsoil[i])), 0, len(profile)-1)
				sampled[q] = profile[nm]
			}
			trans[i] = floats.Dot(sampled[:], percTable[:])
		} else if m.dzsoil[i] > 0 {
			nm := clampInt(int(math.Round(satDeficit/m.dzsoil[i])), 0, len(profile)-1)
			trans[i] = profile[nm]
		} else {
			trans[i] = profile[0]
		}
	})

	wsum := make([]float64, m.n)

	// Pass 2: per-edge gamma-weighted flow terms and the per-patch Courant
	// velocity. subTerm[i][j] = gamma[i][j] * rate[i][j] is the edge's
	// share of patch i's total outflow; wsum[i] is their sum.
	cMax := parallelMax(m.n, func(i int) float64 {
		var gsum, localMax float64
		rate := make([]float64, len(m.subndxo[i]))
		for j, k := range m.subndxo[i] {
			s := (m.waterz[i] - m.waterz[k]) / safeDiv(m.subdist[i][j])
			if s <= 0 {
				m.subGamma[i][j] = 0
				rate[j] = 0
				continue
			}
			zhat := (m.waterz[i] + m.waterz[k]) / 2
			v := s * trans[i] / safeDiv(m.psize[i])
			if v > localMax {
				localMax = v
			}
			m.subGamma[i][j] = s
			rate[j] = m.perimf[i][j] * zhat * v
			gsum += s
		}
		if gsum > 0 {
			for j := range m.subndxo[i] {
				m.subGamma[i][j] /= gsum
			}
		}
		for j := range m.subndxo[i] {
			m.subTerm[i][j] = m.subGamma[i][j] * rate[j]
			wsum[i] += m.subTerm[i][j]
		}
		return localMax
	})

	tau := tauRemaining
	if cMax > 0 {
		tau = math.Min(couMax/cMax, tauRemaining)
	} else {
		logNumericStall(m.cfg, &NumericStallError{Patch: -1, Component: "subsurface"})
	}
	tau = math.Min(tau, cplMax)

	// Pass 3: tau/totH2O-scaled outflow fraction and per-edge solute rate.
	// A patch's lateral outflow over tau is limited to the water it holds;
	// a patch with no water has no outflow.
	outfac := make([]float64, m.n)
	parallelFor(m.n, func(i int) {
		if m.totH2O[i] <= 0 {
			wsum[i] = 0
			for j := range m.subndxo[i] {
				m.subTerm[i][j] = 0
				m.subRtefac[i][j] = 0
			}
			return
		}
		if out := wsum[i] * tau; out > m.totH2O[i] {
			scale := m.totH2O[i] / out
			wsum[i] *= scale
			for j := range m.subndxo[i] {
				m.subTerm[i][j] *= scale
			}
		}
		f := tau / m.totH2O[i]
		outfac[i] = f * wsum[i]
		for j := range m.subndxo[i] {
			m.subRtefac[i][j] = f * m.subTerm[i][j]
		}
	})

	// Pass 4: apply net lateral change. The water balance uses the raw
	// gamma-weighted flow term directly; the solute balance uses the
	// receiving patch's own current concentration, matching the reference
	// routing's inflow accounting exactly (see DESIGN.md).
	parallelFor(m.n, func(i int) {
		dH2O := -wsum[i] * tau
		for idx, src := range m.subndxi[i] {
			edge := m.subInflowEdge[i][idx]
			dH2O += m.subTerm[src][edge] * tau
		}
		m.latH2O[i] = dH2O

		dNO3 := -outfac[i] * m.totNO3[i]
		dNH4 := -outfac[i] * m.totNH4[i]
		dDOC := -outfac[i] * m.totDOC[i]
		dDON := -outfac[i] * m.totDON[i]
		for idx, src := range m.subndxi[i] {
			edge := m.subInflowEdge[i][idx]
			rtefac := m.subRtefac[src][edge]
			dNO3 += rtefac * m.totNO3[i]
			dNH4 += rtefac * m.totNH4[i]
			dDOC += rtefac * m.totDOC[i]
			dDON += rtefac * m.totDON[i]
		}
		m.latNO3[i] = dNO3
		m.latNH4[i] = dNH4
		m.latDOC[i] = dDOC
		m.latDON[i] = dDON
	})

	return tau
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func safeDiv(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
