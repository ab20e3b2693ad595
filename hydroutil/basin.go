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

// Package hydroutil provides the configuration, basin I/O and driver
// wiring used by the hydroroute command-line tool.
package hydroutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/watershed/hydrorouting/routing"
)

// LoadBasin reads a Basin from a JSON file at path. The JSON document is
// a straightforward encoding of routing.Basin: a name and a flat list of
// patches, with DrainageEdge targets referring to other patches by their
// index in the list.
func LoadBasin(path string) (*routing.Basin, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("hydroutil: opening basin file: %w", err)
	}
	defer f.Close()
	return DecodeBasin(f)
}

// DecodeBasin decodes a Basin from r.
func DecodeBasin(r io.Reader) (*routing.Basin, error) {
	b := &routing.Basin{}
	if err := json.NewDecoder(r).Decode(b); err != nil {
		return nil, fmt.Errorf("hydroutil: decoding basin: %w", err)
	}
	return b, nil
}

// SaveBasin writes basin to a JSON file at path, creating it if necessary.
func SaveBasin(path string, basin *routing.Basin) error {
	f, err := os.Create(os.ExpandEnv(path))
	if err != nil {
		return fmt.Errorf("hydroutil: creating basin output file: %w", err)
	}
	defer f.Close()
	return EncodeBasin(f, basin)
}

// EncodeBasin writes basin to w as indented JSON.
func EncodeBasin(w io.Writer, basin *routing.Basin) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(basin)
}
