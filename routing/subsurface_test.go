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
	"testing"
)

func TestSubRoutingFlowsDownhillAndConservesMass(t *testing.T) {
	patches := twoPatchStaircase()
	m, err := NewMesh(patches, MeshConfig{StdScale: 1})
	if err != nil {
		t.Fatal(err)
	}
	m.copyIn()

	tau := m.subRouting(1800)
	if tau <= 0 || tau > cplMax {
		t.Fatalf("coupling step out of range: %v", tau)
	}

	if m.latH2O[0] >= 0 {
		t.Errorf("expected patch 0 (higher) to lose water laterally, got latH2O=%v", m.latH2O[0])
	}
	if m.latH2O[1] <= 0 {
		t.Errorf("expected patch 1 (lower) to gain water laterally, got latH2O=%v", m.latH2O[1])
	}
	sum := m.latH2O[0] + m.latH2O[1]
	if math.Abs(sum) > 1e-9 {
		t.Errorf("lateral H2O change should sum to zero across a closed two-cell system, got %v", sum)
	}
}

func TestSubRoutingNoDescendingGradientIsNotFatal(t *testing.T) {
	// Two patches at the same elevation: no stable downhill flow anywhere,
	// which should fall back to the remaining coupling budget rather than
	// erroring.
	patches := twoPatchStaircase()
	patches[1].Z = patches[0].Z
	patches[1].SatDeficitZ = patches[0].SatDeficitZ
	m, err := NewMesh(patches, MeshConfig{StdScale: 1})
	if err != nil {
		t.Fatal(err)
	}
	m.copyIn()

	tau := m.subRouting(900)
	if tau != 900 {
		t.Errorf("expected a numeric-stall fallback to the full remaining budget (900), got %v", tau)
	}
	if m.latH2O[0] != 0 || m.latH2O[1] != 0 {
		t.Errorf("expected no lateral flow with no descending gradient, got %v, %v", m.latH2O[0], m.latH2O[1])
	}
}

func TestSubRoutingCourantStepRespectsCap(t *testing.T) {
	patches := twoPatchStaircase()
	// A huge elevation difference should drive a very large velocity and
	// hence a tiny Courant step, well under the 1800s ceiling.
	patches[0].Z = 1000
	patches[0].SatDeficitZ = 0
	m, err := NewMesh(patches, MeshConfig{StdScale: 1})
	if err != nil {
		t.Fatal(err)
	}
	m.copyIn()

	tau := m.subRouting(1800)
	if tau <= 0 || tau >= 1800 {
		t.Errorf("expected a Courant-limited step well under the 1800s cap, got %v", tau)
	}
}
