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
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

const (
	// epsilon is the residual internal-time threshold below which the
	// surface router's inner loop stops.
	epsilon = 1.0e-5
	twoThd  = 2.0 / 3.0

	// couMax is the target Courant number for the adaptive coupling step.
	couMax = 0.2
	// cplMax is the hard ceiling on the coupling step, in seconds.
	cplMax = 1800.0

	// defaultMaxNeighborSoftBound is the diagnostic degree threshold for a
	// patch's drainage list, logged (not fatal) when exceeded.
	defaultMaxNeighborSoftBound = 16
)

// normalTable and percTable are the fixed quantile offsets and weights used
// to integrate a patch's transmissivity profile against its within-patch
// water-table variability.
var normalTable = [9]float64{0, 0.253, 0.524, 0.842, 1.283, -0.253, -0.524, -0.842, -1.283}
var percTable = [9]float64{0.2, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}

// MeshConfig holds construction-time tunables for a Mesh.
type MeshConfig struct {
	// StdScale scales each patch's terrain-roughness standard deviation to
	// produce its water-table variability scale (pscale).
	StdScale float64

	// MaxNeighborSoftBound is the drainage-list degree above which a
	// MeshOverflowError is logged. Zero selects the default of 16.
	MaxNeighborSoftBound int

	Verbose bool
	Logger  *logrus.Logger
}

func (cfg MeshConfig) withDefaults() MeshConfig {
	if cfg.MaxNeighborSoftBound <= 0 {
		cfg.MaxNeighborSoftBound = defaultMaxNeighborSoftBound
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return cfg
}

// Mesh is the dense-array index built once from a basin's patches. It holds
// time-invariant geometric factors and the inverted inflow tables, plus the
// per-species working columns that Driver.Step copies patch state into and
// out of on every external step.
type Mesh struct {
	cfg     MeshConfig
	patches []*Patch
	n       int

	// Time-invariant geometry and soil defaults.
	psize  []float64
	pscale []float64
	retdep []float64
	rootzs []float64
	ksatv  []float64
	ksat0  []float64
	mzV    []float64
	por0   []float64
	porD   []float64
	psiair []float64
	dzsoil []float64
	nsoil  []int
	ndecay []float64
	ddecay []float64
	capH2O []float64
	sfcknl []float64

	// Surface inflow matrix (dynamic capacity: per spec's storage-layout
	// redesign, not a fixed MAXNEIGHBOR stride).
	sfcndxi [][]int
	sfcgam  [][]float64

	// Subsurface outflow/inflow matrices.
	subndxo [][]int
	subdist [][]float64
	perimf  [][]float64
	subndxi [][]int
	// subInflowEdge[k][m] is the index within subndxo[subndxi[k][m]] of the
	// outflow edge that targets patch k, letting the apply pass look up the
	// source's per-edge rate without a second search.
	subInflowEdge [][]int

	// subGamma, subTerm and subRtefac are reused, per-call scratch columns
	// shaped like subndxo, refreshed on every subRouting call: the
	// normalized slope fraction, the gamma-weighted flow term used for the
	// water mass balance, and the additionally tau/totH2O-scaled term used
	// for the solute mass balance.
	subGamma  [][]float64
	subTerm   [][]float64
	subRtefac [][]float64

	// Per-step working columns (species: H2O, NO3, NH4, DOC, DON).
	sfcH2O, sfcNO3, sfcNH4, sfcDOC, sfcDON []float64
	totH2O, totNO3, totNH4, totDOC, totDON []float64
	infH2O, infNO3, infNH4, infDOC, infDON []float64
	latH2O, latNO3, latNH4, latDOC, latDON []float64
	canH2O, canNO3, canNH4, canDOC, canDON []float64
	waterz                                 []float64
}

// NewMesh builds a Mesh index from patches. Patches are referenced, not
// copied; Driver.Step copies their mutable state into the mesh's working
// columns on entry and back out on exit of every external step.
func NewMesh(patches []*Patch, cfg MeshConfig) (*Mesh, error) {
	cfg = cfg.withDefaults()
	n := len(patches)
	m := &Mesh{
		cfg:     cfg,
		patches: patches,
		n:       n,

		psize: make([]float64, n), pscale: make([]float64, n),
		retdep: make([]float64, n), rootzs: make([]float64, n),
		ksatv: make([]float64, n), ksat0: make([]float64, n),
		mzV: make([]float64, n), por0: make([]float64, n), porD: make([]float64, n),
		psiair: make([]float64, n), dzsoil: make([]float64, n), nsoil: make([]int, n),
		ndecay: make([]float64, n), ddecay: make([]float64, n),
		capH2O: make([]float64, n), sfcknl: make([]float64, n),

		sfcndxi: make([][]int, n), sfcgam: make([][]float64, n),
		subndxo: make([][]int, n), subdist: make([][]float64, n), perimf: make([][]float64, n),
		subndxi: make([][]int, n), subInflowEdge: make([][]int, n),
		subGamma: make([][]float64, n), subTerm: make([][]float64, n), subRtefac: make([][]float64, n),

		sfcH2O: make([]float64, n), sfcNO3: make([]float64, n), sfcNH4: make([]float64, n), sfcDOC: make([]float64, n), sfcDON: make([]float64, n),
		totH2O: make([]float64, n), totNO3: make([]float64, n), totNH4: make([]float64, n), totDOC: make([]float64, n), totDON: make([]float64, n),
		infH2O: make([]float64, n), infNO3: make([]float64, n), infNH4: make([]float64, n), infDOC: make([]float64, n), infDON: make([]float64, n),
		latH2O: make([]float64, n), latNO3: make([]float64, n), latNH4: make([]float64, n), latDOC: make([]float64, n), latDON: make([]float64, n),
		canH2O: make([]float64, n), canNO3: make([]float64, n), canNH4: make([]float64, n), canDOC: make([]float64, n), canDON: make([]float64, n),
		waterz: make([]float64, n),
	}

	// dfrac[i] is patch i's normalized, area-weighted surface outflow
	// fraction to each of its surface-drainage neighbors. It is only needed
	// to build the inverted inflow table below, so it is not kept on Mesh.
	dfrac := make([][]float64, n)

	// Phase A: per-patch geometry and soil-column factors, safe to run
	// concurrently because each goroutine only ever writes column i.
	parallelFor(n, func(i int) {
		p := patches[i]
		m.psize[i] = math.Sqrt(p.Area)
		m.pscale[i] = cfg.StdScale * p.Std
		m.ksatv[i] = p.KsatVertical
		m.ksat0[i] = p.Ksat0
		m.mzV[i] = p.MzV
		m.por0[i] = p.Porosity0
		m.porD[i] = p.PorosityDecay
		m.psiair[i] = p.PsiAirEntry
		m.dzsoil[i] = p.IntervalSize
		m.nsoil[i] = p.NumSoilIntervals
		m.ndecay[i] = p.NDecay
		m.ddecay[i] = p.DDecay
		m.retdep[i] = p.DetentionStoreSize
		m.rootzs[i] = p.rootzoneS()
		m.capH2O[i] = p.FieldCapacity

		if p.ManningN > 0 && m.psize[i] > 0 {
			m.sfcknl[i] = math.Sqrt(math.Tan(p.SlopeMax)) / (p.ManningN * m.psize[i])
		} else {
			logGeometryDegenerate(cfg, &GeometryDegenerateError{Patch: i, Reason: "zero area or Manning's n: no surface drainage velocity"})
		}

		// Normalize the surface outflow table for this patch.
		var gsum float64
		for _, e := range p.SurfaceDrainage {
			gsum += e.Gamma
		}
		frac := make([]float64, len(p.SurfaceDrainage))
		if gsum > 0 {
			for j, e := range p.SurfaceDrainage {
				areaRatio := 1.0
				if to := patches[e.To].Area; to > 0 {
					areaRatio = p.Area / to
				}
				frac[j] = (e.Gamma / gsum) * areaRatio
			}
		}
		dfrac[i] = frac

		// Subsurface outflow geometry: distance and interface factor to
		// each downhill neighbor.
		m.subndxo[i] = make([]int, len(p.SubsurfaceDrainage))
		m.subdist[i] = make([]float64, len(p.SubsurfaceDrainage))
		m.perimf[i] = make([]float64, len(p.SubsurfaceDrainage))
		m.subGamma[i] = make([]float64, len(p.SubsurfaceDrainage))
		m.subTerm[i] = make([]float64, len(p.SubsurfaceDrainage))
		m.subRtefac[i] = make([]float64, len(p.SubsurfaceDrainage))
		for j, e := range p.SubsurfaceDrainage {
			q := patches[e.To]
			dx, dy := q.Position.X-p.Position.X, q.Position.Y-p.Position.Y
			dist := math.Hypot(dx, dy)
			diagf := 0.5
			if math.Abs(dx)+math.Abs(dy) < 1.1*dist {
				diagf = 0.5 * math.Sqrt(0.5)
			}
			areaRatio := 1.0
			if q.Area > 0 {
				areaRatio = p.Area / q.Area
			}
			m.subndxo[i][j] = e.To
			m.subdist[i][j] = dist
			m.perimf[i][j] = diagf * areaRatio
		}
	})

	// Phase B: serial inversion of the surface and subsurface outflow
	// tables into inflow tables. This loops over every outflow edge of
	// every patch (no early exit after the first neighbor).
	for i, p := range patches {
		for j, e := range p.SurfaceDrainage {
			k := e.To
			m.sfcndxi[k] = append(m.sfcndxi[k], i)
			m.sfcgam[k] = append(m.sfcgam[k], dfrac[i][j])
		}
		for j, e := range p.SubsurfaceDrainage {
			k := e.To
			m.subndxi[k] = append(m.subndxi[k], i)
			m.subInflowEdge[k] = append(m.subInflowEdge[k], j)
		}
	}
	for k := 0; k < n; k++ {
		if len(m.sfcndxi[k]) > cfg.MaxNeighborSoftBound {
			logMeshOverflow(cfg, &MeshOverflowError{Patch: k, Degree: len(m.sfcndxi[k]), Bound: cfg.MaxNeighborSoftBound})
		}
		if len(m.subndxi[k]) > cfg.MaxNeighborSoftBound {
			logMeshOverflow(cfg, &MeshOverflowError{Patch: k, Degree: len(m.subndxi[k]), Bound: cfg.MaxNeighborSoftBound})
		}
	}

	return m, nil
}

func logMeshOverflow(cfg MeshConfig, err *MeshOverflowError) {
	if cfg.Verbose {
		cfg.Logger.WithFields(logrus.Fields{"patch": err.Patch, "degree": err.Degree, "bound": err.Bound}).Warn(err.Error())
	}
}

// logGeometryDegenerate logs a patch whose geometry can't support outflow
// routing; the patch is simply left with no routed outflow, so this is a
// warning, not a fatal condition.
func logGeometryDegenerate(cfg MeshConfig, err *GeometryDegenerateError) {
	if cfg.Verbose {
		cfg.Logger.WithFields(logrus.Fields{"patch": err.Patch, "reason": err.Reason}).Warn(err.Error())
	}
}

// logNumericStall logs a router pass falling back to the remaining time
// budget because it found no positive Courant velocity anywhere in the
// mesh. It is a debug-level diagnostic: the fallback is a safe, deliberate
// substep-size choice, not a failure.
func logNumericStall(cfg MeshConfig, err *NumericStallError) {
	if cfg.Verbose {
		cfg.Logger.WithFields(logrus.Fields{"patch": err.Patch, "component": err.Component}).Debug(err.Error())
	}
}

// N returns the number of patches in the mesh.
func (m *Mesh) N() int { return m.n }

// Patch returns the i-th patch's read-only geometry and soil-column
// defaults, for use by pluggable Canopy and Stream implementations that
// need them to compute their rates.
func (m *Mesh) Patch(i int) *Patch { return m.patches[i] }

// SetCanopyRates sets patch i's canopy-input rates (per second) for the
// species families H2O, NO3, NH4, DOC and DON. It is the write seam a
// pluggable Canopy implementation uses instead of reaching into Mesh's
// unexported columns directly.
func (m *Mesh) SetCanopyRates(i int, h2o, no3, nh4, doc, don float64) {
	m.canH2O[i] = h2o
	m.canNO3[i] = no3
	m.canNH4[i] = nh4
	m.canDOC[i] = doc
	m.canDON[i] = don
}

// SurfaceH2O returns patch i's current surface (detention) store.
func (m *Mesh) SurfaceH2O(i int) float64 { return m.sfcH2O[i] }

// AddSurfaceH2O adds delta to patch i's surface store, for use by a
// pluggable Stream implementation depositing unrouted overflow.
func (m *Mesh) AddSurfaceH2O(i int, delta float64) { m.sfcH2O[i] += delta }

// SurfaceWeightMatrix returns a sparse N x N matrix of the surface-routing
// inflow weights, Get(dest, src) = sfcgam, for use in validating that every
// outflow edge has a matching inflow edge of equal weight.
func (m *Mesh) SurfaceWeightMatrix() *sparse.SparseArray {
	w := sparse.ZerosSparse(m.n, m.n)
	for k := 0; k < m.n; k++ {
		for idx, src := range m.sfcndxi[k] {
			w.Set(m.sfcgam[k][idx], k, src)
		}
	}
	return w
}

// copyIn copies external patch state into the mesh's per-step working
// columns. It is called once at the start of every external step.
func (m *Mesh) copyIn() {
	for i, p := range m.patches {
		m.sfcH2O[i] = p.DetentionStore
		m.sfcNO3[i] = p.SurfaceNO3
		m.sfcNH4[i] = p.SurfaceNH4
		m.sfcDOC[i] = p.SurfaceDOC
		m.sfcDON[i] = p.SurfaceDON

		m.waterz[i] = p.Z - math.Max(p.SatDeficitZ, 0)
		m.capH2O[i] = p.FieldCapacity
		m.totH2O[i] = p.FieldCapacity - p.SatDeficit
		m.totNO3[i] = p.SoilNitrate
		m.totNH4[i] = p.SoilSminn
		m.totDOC[i] = p.SoilDOC
		m.totDON[i] = p.SoilDON
	}
}

// copyOut writes the mesh's working columns back into external patch
// state. It is called once at the end of every external step.
func (m *Mesh) copyOut() {
	for i, p := range m.patches {
		p.DetentionStore = m.sfcH2O[i]
		p.SurfaceNO3 = m.sfcNO3[i]
		p.SurfaceNH4 = m.sfcNH4[i]
		p.SurfaceDOC = m.sfcDOC[i]
		p.SurfaceDON = m.sfcDON[i]

		p.SatDeficitZ = p.Z - m.waterz[i]
		p.SatDeficit = p.FieldCapacity - m.totH2O[i]
		p.SoilNitrate = m.totNO3[i]
		p.SoilSminn = m.totNH4[i]
		p.SoilDOC = m.totDOC[i]
		p.SoilDON = m.totDON[i]
	}
}

// parallelFor calls f(i) for every i in [0, n) using a worker pool sized to
// GOMAXPROCS, with static stride partitioning: worker p handles indices
// p, p+nprocs, p+2*nprocs, ... This mirrors the data-parallel Calculations
// pattern but without per-cell locking, since each call writes only to the
// column(s) at index i.
func parallelFor(n int, f func(i int)) {
	if n == 0 {
		return
	}
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < n; ii += nprocs {
				f(ii)
			}
		}(pp)
	}
	wg.Wait()
}

// parallelMax calls f(i) for every i in [0, n) and returns the maximum
// value returned, combining per-worker local maxima after the barrier so
// the reduction never races.
func parallelMax(n int, f func(i int) float64) float64 {
	if n == 0 {
		return 0
	}
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	locals := make([]float64, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			var local float64
			for ii := pp; ii < n; ii += nprocs {
				if v := f(ii); v > local {
					local = v
				}
			}
			locals[pp] = local
		}(pp)
	}
	wg.Wait()
	var max float64
	for _, v := range locals {
		if v > max {
			max = v
		}
	}
	return max
}
