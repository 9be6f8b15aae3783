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
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// InterpOptions adjusts the behavior of InterpolateCoord.
type InterpOptions struct {
	// Suffix is appended to the names of interpolated variables and to
	// the name of the new coordinate.
	Suffix string

	// KeepOriginal, if true, keeps the uninterpolated variables and the
	// source coordinate in the dataset instead of removing them.
	KeepOriginal bool

	// Fill is the value assigned to target points that fall outside the
	// range of the source coordinate.
	Fill float64
}

// DefaultInterpOptions returns the default interpolation options:
// suffix "_i", originals removed, and NaN fill for out-of-range targets.
func DefaultInterpOptions() *InterpOptions {
	return &InterpOptions{Suffix: "_i", Fill: math.NaN()}
}

// InterpolateCoord resamples every data variable that depends on the named
// coordinate onto the given target values using piecewise-linear
// interpolation. Each affected variable is replaced by a counterpart named
// with the option suffix and indexed by a new coordinate of the same new
// name along the interpolated axis; variables that do not depend on the
// coordinate's dimension pass through untouched. Target values outside the
// source coordinate's range receive the fill value rather than causing an
// error. If o is nil, DefaultInterpOptions() is used.
//
// The source coordinate must be one-dimensional, strictly increasing, and
// at least two elements long.
func InterpolateCoord(ds *Dataset, coord string, targets []float64, o *InterpOptions) (*Dataset, error) {
	if o == nil {
		o = DefaultInterpOptions()
	}
	x, err := ds.Coord(coord)
	if err != nil {
		return nil, err
	}
	if len(x.Dims) != 1 {
		return nil, fmt.Errorf("ctdcast: coordinate %s has %d dimensions; interpolation requires 1",
			coord, len(x.Dims))
	}
	xv := x.Data.Elements
	if len(xv) < 2 {
		return nil, fmt.Errorf("ctdcast: coordinate %s has %d values; interpolation requires at least 2",
			coord, len(xv))
	}
	for i := 1; i < len(xv); i++ {
		if xv[i] <= xv[i-1] {
			return nil, fmt.Errorf("ctdcast: coordinate %s is not strictly increasing", coord)
		}
	}
	srcDim := x.Dims[0]
	newName := coord + o.Suffix

	brs := brackets(xv, targets, o.Fill)

	for _, name := range sortedKeys(ds.Vars) {
		y := ds.Vars[name]
		ax := axisOf(y.Dims, srcDim)
		if ax < 0 {
			continue
		}
		if len(y.Dims) != len(y.Data.Shape) {
			return nil, fmt.Errorf("ctdcast: variable %s has %d dimensions but rank-%d data",
				name, len(y.Dims), len(y.Data.Shape))
		}
		if y.Data.Shape[ax] != len(xv) {
			return nil, fmt.Errorf("ctdcast: variable %s: axis %s has length %d but coordinate %s has length %d",
				name, srcDim, y.Data.Shape[ax], coord, len(xv))
		}
		data := interpAxis(y.Data, ax, brs)
		dims := append([]string{}, y.Dims...)
		dims[ax] = newName
		err := ds.SetVar(name+o.Suffix, &DataVar{Dims: dims, Data: data, Attrs: copyAttrs(y.Attrs)})
		if err != nil {
			return nil, err
		}
		if !o.KeepOriginal {
			delete(ds.Vars, name)
		}
	}

	cd := sparse.ZerosDense(len(targets))
	copy(cd.Elements, targets)
	err = ds.SetCoord(newName, &DataVar{Dims: []string{newName}, Data: cd, Attrs: copyAttrs(x.Attrs)})
	if err != nil {
		return nil, err
	}
	if !o.KeepOriginal {
		delete(ds.Coords, coord)
		ds.pruneDims()
	}
	return ds, nil
}

// bracket locates a target value between two neighboring source points:
// the interpolated value is v[i] + w*(v[i+1]-v[i]). A negative index marks
// a target outside the source range, which receives the fill value.
type bracket struct {
	i    int
	w    float64
	fill float64
}

// brackets locates every target value within the strictly increasing
// source points x.
func brackets(x, targets []float64, fill float64) []bracket {
	brs := make([]bracket, len(targets))
	for j, t := range targets {
		if t == x[len(x)-1] {
			brs[j] = bracket{i: len(x) - 2, w: 1}
			continue
		}
		i := floats.Within(x, t)
		if i < 0 {
			brs[j] = bracket{i: -1, fill: fill}
			continue
		}
		brs[j] = bracket{i: i, w: (t - x[i]) / (x[i+1] - x[i])}
	}
	return brs
}

// interpAxis evaluates the bracketed targets along axis ax of in,
// broadcasting over all other axes.
func interpAxis(in *sparse.DenseArray, ax int, brs []bracket) *sparse.DenseArray {
	outShape := append([]int{}, in.Shape...)
	outShape[ax] = len(brs)
	out := sparse.ZerosDense(outShape...)
	inStr := strides(in.Shape)

	idx := make([]int, len(outShape))
	for f := 0; f < len(out.Elements); f++ {
		b := brs[idx[ax]]
		if b.i < 0 {
			out.Elements[f] = b.fill
		} else {
			base := 0
			for k, iv := range idx {
				if k != ax {
					base += iv * inStr[k]
				}
			}
			v0 := in.Elements[base+b.i*inStr[ax]]
			v1 := in.Elements[base+(b.i+1)*inStr[ax]]
			out.Elements[f] = v0 + b.w*(v1-v0)
		}
		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < outShape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}
