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

package baseflow

import (
	"testing"

	"github.com/watershed/hydrorouting/routing"
)

func testMesh(t *testing.T) *routing.Mesh {
	t.Helper()
	p := &routing.Patch{
		Area: 100, Perimeter: 40, ManningN: 0.05,
		NumSoilIntervals: 1, IntervalSize: 0.1, SoilDepth: 0.1,
		FieldCapacity:         1.0,
		TransmissivityProfile: []float64{0.01, 0.01},
	}
	m, err := routing.NewMesh([]*routing.Patch{p}, routing.MeshConfig{StdScale: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestAdvanceRecedesStorageAndAccumulatesOutflow(t *testing.T) {
	m := testMesh(t)
	r := New(1)
	r.SetChannel(0, Channel{K: 0.001, Capacity: 10, Storage: 5})

	if err := r.Advance(3600, m); err != nil {
		t.Fatal(err)
	}

	c := r.Channel(0)
	if c.Storage >= 5 {
		t.Errorf("expected channel storage to recede, got %v", c.Storage)
	}
	if r.Outflow <= 0 {
		t.Errorf("expected positive accumulated outflow, got %v", r.Outflow)
	}
}

func TestAdvanceSkipsPatchesWithoutAChannel(t *testing.T) {
	m := testMesh(t)
	r := New(1) // Capacity defaults to 0: no channel.

	if err := r.Advance(3600, m); err != nil {
		t.Fatal(err)
	}
	if r.Outflow != 0 {
		t.Errorf("expected no outflow for a patch with no channel, got %v", r.Outflow)
	}
}

func TestAdvanceSpillsExcessOverCapacityToSurface(t *testing.T) {
	m := testMesh(t)
	r := New(1)
	r.SetChannel(0, Channel{K: 0, Capacity: 1, Storage: 5})

	before := m.SurfaceH2O(0)
	if err := r.Advance(1, m); err != nil {
		t.Fatal(err)
	}
	c := r.Channel(0)
	if c.Storage > 1+1e-9 {
		t.Errorf("expected channel storage to be capped at capacity, got %v", c.Storage)
	}
	if m.SurfaceH2O(0) <= before {
		t.Errorf("expected excess channel storage to spill onto the surface store, before=%v after=%v", before, m.SurfaceH2O(0))
	}
}
