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

import "fmt"

// MeshOverflowError reports that a patch's surface or subsurface inflow
// list grew past the configured soft bound. It is logged (when Verbose is
// set), not fatal: the mesh keeps the larger dynamic list.
type MeshOverflowError struct {
	Patch  int
	Degree int
	Bound  int
}

func (e *MeshOverflowError) Error() string {
	return fmt.Sprintf("routing: patch %d drainage degree %d exceeds soft bound %d", e.Patch, e.Degree, e.Bound)
}

// NumericStallError reports that a router pass found no positive Courant
// velocity anywhere in the mesh and fell back to the remaining time budget.
type NumericStallError struct {
	Patch     int
	Component string
}

func (e *NumericStallError) Error() string {
	return fmt.Sprintf("routing: %s found no stable flow direction at patch %d", e.Component, e.Patch)
}

// GeometryDegenerateError reports a patch whose geometry (zero area, zero
// roughness denominator) makes it unable to route outflow. It is treated
// as a no-outflow patch, not a fatal condition.
type GeometryDegenerateError struct {
	Patch  int
	Reason string
}

func (e *GeometryDegenerateError) Error() string {
	return fmt.Sprintf("routing: patch %d has degenerate geometry: %s", e.Patch, e.Reason)
}
