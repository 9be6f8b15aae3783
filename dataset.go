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

// Package ctdcast preprocesses hydrographic (CTD cast) data stored as
// labelled N-dimensional arrays in NetCDF files: it interpolates each cast
// onto a common pressure grid, promotes per-cast scalar coordinates onto a
// concatenation dimension, derives a time coordinate from metadata
// attributes, and combines many cast files into one analysis-ready dataset.
package ctdcast

import (
	"fmt"
	"sort"

	"github.com/ctessum/sparse"
)

// DataVar is a single labelled variable: an N-dimensional array whose axes
// are named dimensions. A zero-dimensional (scalar) variable has no
// dimensions and a one-element array.
type DataVar struct {
	// Dims are the names of the axes of Data, in order.
	Dims []string

	// Data holds the variable values.
	Data *sparse.DenseArray

	// Attrs holds variable metadata attributes.
	Attrs map[string]interface{}
}

// Size returns the number of elements in v.
func (v *DataVar) Size() int {
	n := 1
	for _, s := range v.Data.Shape {
		n *= s
	}
	return n
}

// Copy returns a deep copy of v.
func (v *DataVar) Copy() *DataVar {
	return &DataVar{
		Dims:  append([]string{}, v.Dims...),
		Data:  v.Data.Copy(),
		Attrs: copyAttrs(v.Attrs),
	}
}

func copyAttrs(attrs map[string]interface{}) map[string]interface{} {
	o := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		o[k] = v
	}
	return o
}

// Dataset is a labelled container of N-dimensional variables. Variables
// share named dimensions, coordinate variables give the values along those
// dimensions, and Attrs carries global metadata.
type Dataset struct {
	// Dims maps each dimension name to its length.
	Dims map[string]int

	// Vars holds the data variables.
	Vars map[string]*DataVar

	// Coords holds the coordinate variables.
	Coords map[string]*DataVar

	// Attrs holds global metadata attributes.
	Attrs map[string]interface{}
}

// NewDataset returns a new, empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Dims:   make(map[string]int),
		Vars:   make(map[string]*DataVar),
		Coords: make(map[string]*DataVar),
		Attrs:  make(map[string]interface{}),
	}
}

// Var returns the data variable with the given name.
func (ds *Dataset) Var(name string) (*DataVar, error) {
	v, ok := ds.Vars[name]
	if !ok {
		return nil, fmt.Errorf("ctdcast: variable %s is not in dataset", name)
	}
	return v, nil
}

// Coord returns the coordinate variable with the given name.
func (ds *Dataset) Coord(name string) (*DataVar, error) {
	c, ok := ds.Coords[name]
	if !ok {
		return nil, fmt.Errorf("ctdcast: coordinate %s is not in dataset", name)
	}
	return c, nil
}

// SetVar adds or replaces the data variable with the given name,
// registering its dimensions.
func (ds *Dataset) SetVar(name string, v *DataVar) error {
	if err := ds.register(name, v); err != nil {
		return err
	}
	ds.Vars[name] = v
	return nil
}

// SetCoord adds or replaces the coordinate variable with the given name,
// registering its dimensions.
func (ds *Dataset) SetCoord(name string, v *DataVar) error {
	if err := ds.register(name, v); err != nil {
		return err
	}
	ds.Coords[name] = v
	return nil
}

// register checks that v is consistent with its declared dimensions and
// with the dimension lengths already in the dataset, then records its
// dimensions.
func (ds *Dataset) register(name string, v *DataVar) error {
	if v == nil || v.Data == nil {
		return fmt.Errorf("ctdcast: variable %s has no data", name)
	}
	if len(v.Dims) != len(v.Data.Shape) &&
		!(len(v.Dims) == 0 && len(v.Data.Elements) == 1) {
		return fmt.Errorf("ctdcast: variable %s has %d dimensions but rank-%d data",
			name, len(v.Dims), len(v.Data.Shape))
	}
	if n := v.Size(); len(v.Data.Elements) != n {
		return fmt.Errorf("ctdcast: variable %s: dimensions give %d elements but array holds %d",
			name, n, len(v.Data.Elements))
	}
	for i, d := range v.Dims {
		if l, ok := ds.Dims[d]; ok && l != v.Data.Shape[i] {
			return fmt.Errorf("ctdcast: variable %s: dimension %s has length %d but dataset has length %d",
				name, d, v.Data.Shape[i], l)
		}
	}
	for i, d := range v.Dims {
		ds.Dims[d] = v.Data.Shape[i]
	}
	return nil
}

// pruneDims removes dimensions that no variable or coordinate uses.
func (ds *Dataset) pruneDims() {
	used := make(map[string]bool)
	for _, v := range ds.Vars {
		for _, d := range v.Dims {
			used[d] = true
		}
	}
	for _, c := range ds.Coords {
		for _, d := range c.Dims {
			used[d] = true
		}
	}
	for d := range ds.Dims {
		if !used[d] {
			delete(ds.Dims, d)
		}
	}
}

// Copy returns a deep copy of ds.
func (ds *Dataset) Copy() *Dataset {
	o := NewDataset()
	for d, l := range ds.Dims {
		o.Dims[d] = l
	}
	for n, v := range ds.Vars {
		o.Vars[n] = v.Copy()
	}
	for n, c := range ds.Coords {
		o.Coords[n] = c.Copy()
	}
	o.Attrs = copyAttrs(ds.Attrs)
	return o
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]*DataVar) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// axisOf returns the index of dim within dims, or -1 if dims does not
// contain dim.
func axisOf(dims []string, dim string) int {
	for i, d := range dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// strides returns the element strides for a row-major array with the
// given shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	st := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = st
		st *= shape[i]
	}
	return s
}

// Concat concatenates the given datasets along the named dimension, in the
// order given. Variables and coordinates indexed by dim are joined along it;
// variables that lack dim are stacked along a new leading dim axis, one
// entry per dataset element. Coordinates not indexed by dim must have the
// same length in every dataset and are taken from the first one. Global
// attributes are taken from the first dataset.
func Concat(dim string, in ...*Dataset) (*Dataset, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("ctdcast: concatenating along %s: no datasets", dim)
	}
	out := NewDataset()
	out.Attrs = copyAttrs(in[0].Attrs)
	for _, name := range sortedKeys(in[0].Vars) {
		vs := make([]*DataVar, len(in))
		for i, ds := range in {
			v, ok := ds.Vars[name]
			if !ok {
				return nil, fmt.Errorf("ctdcast: concatenating variable %s: missing from dataset %d", name, i)
			}
			vs[i] = v
		}
		cv, err := concatVars(dim, vs)
		if err != nil {
			return nil, fmt.Errorf("ctdcast: concatenating variable %s: %v", name, err)
		}
		if err := out.SetVar(name, cv); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(in[0].Coords) {
		cs := make([]*DataVar, len(in))
		for i, ds := range in {
			c, ok := ds.Coords[name]
			if !ok {
				return nil, fmt.Errorf("ctdcast: concatenating coordinate %s: missing from dataset %d", name, i)
			}
			cs[i] = c
		}
		if axisOf(cs[0].Dims, dim) < 0 {
			// Shared coordinate; it must agree across datasets.
			for i := 1; i < len(cs); i++ {
				if cs[i].Size() != cs[0].Size() {
					return nil, fmt.Errorf("ctdcast: coordinate %s has length %d in dataset %d but %d in dataset 0",
						name, cs[i].Size(), i, cs[0].Size())
				}
			}
			if err := out.SetCoord(name, cs[0].Copy()); err != nil {
				return nil, err
			}
			continue
		}
		cc, err := concatVars(dim, cs)
		if err != nil {
			return nil, fmt.Errorf("ctdcast: concatenating coordinate %s: %v", name, err)
		}
		if err := out.SetCoord(name, cc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// concatVars joins the given variables along dim. Variables that lack dim
// are first given a new leading dim axis of length one.
func concatVars(dim string, vs []*DataVar) (*DataVar, error) {
	norm := make([]*DataVar, len(vs))
	for i, v := range vs {
		if axisOf(v.Dims, dim) >= 0 {
			norm[i] = v
			continue
		}
		shape := append([]int{1}, v.Data.Shape...)
		a := sparse.ZerosDense(shape...)
		copy(a.Elements, v.Data.Elements)
		norm[i] = &DataVar{
			Dims:  append([]string{dim}, v.Dims...),
			Data:  a,
			Attrs: v.Attrs,
		}
	}
	ax := axisOf(norm[0].Dims, dim)
	total := 0
	for i, v := range norm {
		if len(v.Dims) != len(norm[0].Dims) {
			return nil, fmt.Errorf("rank mismatch between datasets 0 and %d", i)
		}
		for k, d := range v.Dims {
			if d != norm[0].Dims[k] {
				return nil, fmt.Errorf("dimension mismatch between datasets 0 and %d: %v vs %v",
					i, norm[0].Dims, v.Dims)
			}
			if k != ax && v.Data.Shape[k] != norm[0].Data.Shape[k] {
				return nil, fmt.Errorf("length of dimension %s differs between datasets 0 and %d", d, i)
			}
		}
		total += v.Data.Shape[ax]
	}
	outShape := append([]int{}, norm[0].Data.Shape...)
	outShape[ax] = total
	out := sparse.ZerosDense(outShape...)
	outStr := strides(outShape)
	offset := 0
	for _, v := range norm {
		shape := v.Data.Shape
		idx := make([]int, len(shape))
		for f := 0; f < len(v.Data.Elements); f++ {
			of := 0
			for k, iv := range idx {
				if k == ax {
					of += (iv + offset) * outStr[k]
				} else {
					of += iv * outStr[k]
				}
			}
			out.Elements[of] = v.Data.Elements[f]
			for k := len(idx) - 1; k >= 0; k-- {
				idx[k]++
				if idx[k] < shape[k] {
					break
				}
				idx[k] = 0
			}
		}
		offset += shape[ax]
	}
	return &DataVar{
		Dims:  append([]string{}, norm[0].Dims...),
		Data:  out,
		Attrs: copyAttrs(norm[0].Attrs),
	}, nil
}
