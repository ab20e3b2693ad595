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

package hydroutil

import (
	"bytes"
	"testing"

	"github.com/watershed/hydrorouting/routing"
)

func TestEncodeDecodeBasinRoundTrips(t *testing.T) {
	basin := &routing.Basin{
		Name: "test-basin",
		Patches: []*routing.Patch{
			{
				Area: 100, Perimeter: 40, ManningN: 0.05, Z: 10,
				NumSoilIntervals: 1, IntervalSize: 0.1, SoilDepth: 0.1,
				FieldCapacity:         1.0,
				TransmissivityProfile: []float64{0.01, 0.01},
				SurfaceDrainage:       []routing.DrainageEdge{{To: 1, Gamma: 1.0}},
			},
			{
				Area: 100, Perimeter: 40, ManningN: 0.05, Z: 8,
				NumSoilIntervals: 1, IntervalSize: 0.1, SoilDepth: 0.1,
				FieldCapacity:         1.0,
				TransmissivityProfile: []float64{0.01, 0.01},
			},
		},
	}

	var buf bytes.Buffer
	if err := EncodeBasin(&buf, basin); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeBasin(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != basin.Name {
		t.Errorf("name: got %q want %q", got.Name, basin.Name)
	}
	if len(got.Patches) != len(basin.Patches) {
		t.Fatalf("patch count: got %d want %d", len(got.Patches), len(basin.Patches))
	}
	if got.Patches[0].Z != basin.Patches[0].Z {
		t.Errorf("patch 0 Z: got %v want %v", got.Patches[0].Z, basin.Patches[0].Z)
	}
	if len(got.Patches[0].SurfaceDrainage) != 1 || got.Patches[0].SurfaceDrainage[0].To != 1 {
		t.Errorf("patch 0 surface drainage not round-tripped: %+v", got.Patches[0].SurfaceDrainage)
	}
}
