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

import "github.com/ctessum/geom"

// DrainageEdge is one entry in a patch's surface or subsurface drainage
// list: a downhill neighbor and the fraction of this patch's outflow that
// drains to it.
type DrainageEdge struct {
	To    int     `json:"to"`
	Gamma float64 `json:"gamma"`
}

// Patch is one land cell in the routed mesh. Geometry and soil-column
// fields are treated as read-only defaults; the remaining fields hold the
// mutable hydrologic state that Driver.Step reads and updates in place.
type Patch struct {
	// Position is the patch's planar centroid.
	Position geom.Point `json:"position"`

	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
	SlopeMax  float64 `json:"slope_max"`
	ManningN  float64 `json:"manning_n"`
	Std       float64 `json:"std"` // terrain-roughness standard deviation

	NumSoilIntervals      int       `json:"num_soil_intervals"`
	IntervalSize          float64   `json:"interval_size"`
	SoilDepth             float64   `json:"soil_depth"`
	KsatVertical          float64   `json:"ksat_vertical"`
	Ksat0                 float64   `json:"ksat_0"`
	MzV                   float64   `json:"mz_v"`
	Porosity0             float64   `json:"porosity_0"`
	PorosityDecay         float64   `json:"porosity_decay"`
	PsiAirEntry           float64   `json:"psi_air_entry"`
	DetentionStoreSize    float64   `json:"detention_store_size"`
	FieldCapacity         float64   `json:"field_capacity"`
	TransmissivityProfile []float64 `json:"transmissivity_profile"`
	NDecay                float64   `json:"n_decay"`
	DDecay                float64   `json:"d_decay"`

	// Z is the patch's reference surface elevation.
	Z float64 `json:"z"`

	// Mutable state, read on entry to Driver.Step and written on exit.
	DetentionStore float64 `json:"detention_store"`
	SatDeficit     float64 `json:"sat_deficit"`
	SatDeficitZ    float64 `json:"sat_deficit_z"`

	SurfaceNO3 float64 `json:"surface_no3"`
	SurfaceNH4 float64 `json:"surface_nh4"`
	SurfaceDOC float64 `json:"surface_doc"`
	SurfaceDON float64 `json:"surface_don"`

	SoilNitrate float64 `json:"soil_nitrate"`
	SoilSminn   float64 `json:"soil_sminn"`
	SoilDOC     float64 `json:"soil_doc"`
	SoilDON     float64 `json:"soil_don"`

	RootZoneDepth float64 `json:"root_zone_depth"`
	RootZoneS     float64 `json:"root_zone_s"`
	BulkS         float64 `json:"bulk_s"`

	// SurfaceDrainage and SubsurfaceDrainage enumerate this patch's
	// downhill neighbors for overland and lateral groundwater flow,
	// respectively, each with an outflow weight gamma.
	SurfaceDrainage    []DrainageEdge `json:"surface_drainage"`
	SubsurfaceDrainage []DrainageEdge `json:"subsurface_drainage"`
}

// rootzoneS returns the saturation fraction to use for the water-table
// scaling factor: the rootzone's own value when the rootzone has depth,
// otherwise the patch's bulk value.
func (p *Patch) rootzoneS() float64 {
	if p.RootZoneDepth > 0 {
		return p.RootZoneS
	}
	return p.BulkS
}
