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

package snowcanopy

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

func TestAdvanceCapsInterceptionAtCapacity(t *testing.T) {
	m := testMesh(t)
	r := New(1)
	r.SetStratum(0, Stratum{GapFraction: 0, AllPAI: 1, SpecificSnowCapacity: 0.01})
	r.SetSnowfallRate(0, 0.001) // 0.001 m/s

	const tau = 3600.0 // one hour: 3.6m of snow nominally, far above capacity
	if err := r.Advance(tau, m); err != nil {
		t.Fatal(err)
	}

	s := r.Stratum(0)
	if s.SnowStored > 0.01+1e-9 {
		t.Errorf("expected stored snow to be capped at capacity, got %v", s.SnowStored)
	}
	// m is otherwise untouched by Advance aside from the canopy rate
	// columns, which copyIn/copyOut don't expose directly; just confirm
	// the call above didn't panic against a real mesh.
	_ = m
}

func TestAdvanceInterceptsAllWhenBelowCapacity(t *testing.T) {
	m := testMesh(t)
	r := New(1)
	r.SetStratum(0, Stratum{GapFraction: 0, AllPAI: 10, SpecificSnowCapacity: 10})
	r.SetSnowfallRate(0, 0.0001)

	const tau = 10.0
	if err := r.Advance(tau, m); err != nil {
		t.Fatal(err)
	}

	s := r.Stratum(0)
	want := 0.0001 * tau
	if s.SnowStored < want-1e-9 {
		t.Errorf("expected all snow to be intercepted under ample capacity, stored=%v want>=%v", s.SnowStored, want)
	}
}

func TestAdvanceNonVegIgnoresGapFractionAndPAI(t *testing.T) {
	m := testMesh(t)
	r := New(1)
	r.SetStratum(0, Stratum{NonVeg: true, SpecificSnowCapacity: 0.5, GapFraction: 0.9, AllPAI: 0})
	r.SetSnowfallRate(0, 0.001)

	if err := r.Advance(10, m); err != nil {
		t.Fatal(err)
	}
	s := r.Stratum(0)
	want := 0.001 * 10.0
	if s.SnowStored < want-1e-9 {
		t.Errorf("expected a non-vegetated stratum to intercept up to its own capacity regardless of gap fraction, got %v want %v", s.SnowStored, want)
	}
}
