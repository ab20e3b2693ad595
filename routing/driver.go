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
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Basin is a named collection of patches to be routed together.
type Basin struct {
	Name    string   `json:"name"`
	Patches []*Patch `json:"patches"`
}

// DriverConfig configures a Driver. Canopy, Stream and ZFinal default to
// the core's no-op/reference implementations when left nil.
type DriverConfig struct {
	Canopy Canopy
	Stream Stream
	ZFinal ZFinalFunc

	StdScale             float64
	MaxNeighborSoftBound int
	Verbose              bool
	Logger               *logrus.Logger
}

func (cfg DriverConfig) withDefaults() DriverConfig {
	if cfg.Canopy == nil {
		cfg.Canopy = NoopCanopy{}
	}
	if cfg.Stream == nil {
		cfg.Stream = NoopStream{}
	}
	if cfg.ZFinal == nil {
		cfg.ZFinal = DefaultZFinal
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return cfg
}

// Driver runs the five-component coupling sequence (subsurface, canopy,
// surface, stream, vertical) over successive Courant-stable coupling
// steps that sum to one external time step, following the same
// init-once-then-reuse lifecycle as the reference routing driver: the
// Mesh is built from a basin's patches the first time that basin is
// stepped, and reused on every subsequent call.
type Driver struct {
	cfg       DriverConfig
	mesh      *Mesh
	basin     *Basin
	iteration int
}

// NewDriver returns a Driver configured per cfg.
func NewDriver(cfg DriverConfig) *Driver {
	return &Driver{cfg: cfg.withDefaults()}
}

// Mesh returns the driver's current mesh index, or nil if Step has not yet
// been called. It is read-only: callers must not mutate its columns.
func (d *Driver) Mesh() *Mesh { return d.mesh }

// Step advances basin's patches by dtExt seconds: subsurface lateral flow,
// canopy input, surface routing with infiltration, stream routing, and
// vertical balancing, repeated over as many adaptive coupling steps as
// needed to cover dtExt.
func (d *Driver) Step(ctx context.Context, dtExt float64, basin *Basin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.mesh == nil || d.basin != basin {
		mesh, err := NewMesh(basin.Patches, MeshConfig{
			StdScale:             d.cfg.StdScale,
			MaxNeighborSoftBound: d.cfg.MaxNeighborSoftBound,
			Verbose:              d.cfg.Verbose,
			Logger:               d.cfg.Logger,
		})
		if err != nil {
			return err
		}
		d.mesh = mesh
		d.basin = basin
	}

	start := time.Now()
	d.mesh.copyIn()

	remaining := dtExt
	var couplingSteps int
	for remaining > epsilon {
		if err := ctx.Err(); err != nil {
			return err
		}
		tau := d.mesh.subRouting(remaining)
		if err := d.cfg.Canopy.Advance(tau, d.mesh); err != nil {
			return err
		}
		d.mesh.sfcRouting(tau)
		if err := d.cfg.Stream.Advance(tau, d.mesh); err != nil {
			return err
		}
		d.mesh.subVertical(d.cfg.ZFinal)
		remaining -= tau
		couplingSteps++
	}

	d.mesh.copyOut()
	d.iteration++

	if d.cfg.Verbose {
		d.cfg.Logger.WithFields(logrus.Fields{
			"iteration":     d.iteration,
			"basin":         basin.Name,
			"patches":       d.mesh.N(),
			"couplingSteps": couplingSteps,
			"walltime":      time.Since(start),
		}).Debug("routing: completed external step")
	}
	return nil
}
