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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// OpenDataset reads the NetCDF file at the given path into a dataset.
func OpenDataset(filename string) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadDataset reads a NetCDF file into a dataset. Variables whose name
// matches one of their own dimensions, and variables without any
// dimensions, are classified as coordinates; the rest become data
// variables. Values are widened to float64.
func ReadDataset(f *os.File) (*Dataset, error) {
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ctdcast: opening netcdf file: %v", err)
	}
	ds := NewDataset()
	for _, a := range ff.Header.Attributes("") {
		ds.Attrs[a] = ff.Header.GetAttribute("", a)
	}
	for _, name := range ff.Header.Variables() {
		dims := ff.Header.Dimensions(name)
		lengths := ff.Header.Lengths(name)
		r := ff.Reader(name, nil, nil)
		buf := r.Zero(-1)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("ctdcast: reading netcdf variable %s: %v", name, err)
		}
		data := sparse.ZerosDense(lengths...)
		if err := fillElements(data, buf); err != nil {
			return nil, fmt.Errorf("ctdcast: reading netcdf variable %s: %v", name, err)
		}
		attrs := make(map[string]interface{})
		for _, a := range ff.Header.Attributes(name) {
			attrs[a] = ff.Header.GetAttribute(name, a)
		}
		v := &DataVar{Dims: dims, Data: data, Attrs: attrs}
		if isCoordVar(name, dims) {
			err = ds.SetCoord(name, v)
		} else {
			err = ds.SetVar(name, v)
		}
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// isCoordVar reports whether a variable with the given name and dimensions
// follows the NetCDF coordinate-variable convention.
func isCoordVar(name string, dims []string) bool {
	if len(dims) == 0 {
		return true
	}
	return axisOf(dims, name) >= 0
}

// fillElements widens the values read from a NetCDF file into data.
func fillElements(data *sparse.DenseArray, buf interface{}) error {
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return fmt.Errorf("unsupported netcdf value type %T", buf)
	}
	return nil
}

// Write writes ds to NetCDF file f.
func (ds *Dataset) Write(f *os.File) error {
	dimNames := make([]string, 0, len(ds.Dims))
	for d := range ds.Dims {
		dimNames = append(dimNames, d)
	}
	sort.Strings(dimNames)
	dimLens := make([]int, len(dimNames))
	for i, d := range dimNames {
		dimLens[i] = ds.Dims[d]
	}
	h := cdf.NewHeader(dimNames, dimLens)

	attrNames := make([]string, 0, len(ds.Attrs))
	for a := range ds.Attrs {
		attrNames = append(attrNames, a)
	}
	sort.Strings(attrNames)
	for _, a := range attrNames {
		h.AddAttribute("", a, ds.Attrs[a])
	}

	// Sort the names so they write in the same order every time.
	names := sortedKeys(ds.Coords)
	names = append(names, sortedKeys(ds.Vars)...)
	for _, name := range names {
		v, ok := ds.Coords[name]
		if !ok {
			v = ds.Vars[name]
		}
		h.AddVariable(name, v.Dims, []float64{0})
		vAttrs := make([]string, 0, len(v.Attrs))
		for a := range v.Attrs {
			vAttrs = append(vAttrs, a)
		}
		sort.Strings(vAttrs)
		for _, a := range vAttrs {
			h.AddAttribute(name, a, v.Attrs[a])
		}
	}
	h.Define()

	ff, err := cdf.Create(f, h) // writes the header to f
	if err != nil {
		return fmt.Errorf("ctdcast: creating netcdf file: %v", err)
	}
	for _, name := range names {
		v, ok := ds.Coords[name]
		if !ok {
			v = ds.Vars[name]
		}
		if err := writeNCF(ff, name, v.Data); err != nil {
			return fmt.Errorf("ctdcast: writing netcdf variable %s: %v", name, err)
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("ctdcast: writing netcdf file: %v", err)
	}
	return nil
}

// writeNCF writes the data for a single variable to netcdf file f.
func writeNCF(f *cdf.File, name string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data.Elements); err != nil {
		return err
	}
	return nil
}
