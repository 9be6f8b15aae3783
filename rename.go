/*
Copyright © 2018 the CTDCast authors.
This file is part of CTDCast.

CTDCast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

CTDCast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with CTDCast.  If not, see <http://www.gnu.org/licenses/>.
*/

package ctdcast

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// PromoteResult reports which coordinates PromoteCoords re-indexed onto the
// target dimension and which it left alone, so callers can check their
// expectations instead of discovering silent no-ops.
type PromoteResult struct {
	// Promoted lists the coordinates now indexed by the target dimension.
	Promoted []string

	// Skipped lists the coordinates whose length did not match the target
	// dimension and which therefore keep their original dimension.
	Skipped []string
}

// PromoteCoords re-expresses every coordinate whose length equals the length
// of the named dimension as a coordinate indexed by that dimension instead
// of its own, enabling later concatenation along dim. Values and attributes
// are preserved; only the dimension association changes. Equal length is
// treated as sufficient for compatibility; no value-based validation is
// performed. Coordinates of a different length are skipped and reported in
// the result. Dimensions left without any variable are removed.
//
// The target length is taken from the dimension if the dataset has it, and
// otherwise from the coordinate or variable named dim; if neither exists an
// error is returned.
func PromoteCoords(ds *Dataset, dim string) (*PromoteResult, error) {
	n, err := targetLen(ds, dim)
	if err != nil {
		return nil, err
	}
	r := new(PromoteResult)
	for _, name := range sortedKeys(ds.Coords) {
		c := ds.Coords[name]
		if len(c.Dims) == 1 && c.Dims[0] == dim {
			continue // already indexed by the target dimension
		}
		if len(c.Dims) > 1 || c.Size() != n {
			r.Skipped = append(r.Skipped, name)
			continue
		}
		d := sparse.ZerosDense(n)
		copy(d.Elements, c.Data.Elements)
		nc := &DataVar{Dims: []string{dim}, Data: d, Attrs: copyAttrs(c.Attrs)}
		if err := ds.SetCoord(name, nc); err != nil {
			return nil, err
		}
		r.Promoted = append(r.Promoted, name)
	}
	ds.pruneDims()
	return r, nil
}

// targetLen returns the length of the dimension that coordinates are
// promoted onto. The dimension need not exist yet: a dataset fresh from
// AddTimeCoord carries the concatenation coordinate along another
// dimension, so its length is read from the coordinate or variable of the
// same name.
func targetLen(ds *Dataset, dim string) (int, error) {
	if l, ok := ds.Dims[dim]; ok {
		return l, nil
	}
	if c, ok := ds.Coords[dim]; ok {
		return c.Size(), nil
	}
	if v, ok := ds.Vars[dim]; ok {
		return v.Size(), nil
	}
	return 0, fmt.Errorf("ctdcast: dimension %s is not in dataset", dim)
}
