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
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// CombineOptions adjusts the behavior of OpenMFDataset.
type CombineOptions struct {
	// PressureCoord is the name of the coordinate casts are interpolated
	// along. The default is "pressure".
	PressureCoord string

	// ConcatDim is the dimension casts are concatenated along. The
	// default is "time".
	ConcatDim string

	// Time configures the derivation of the time coordinate from dataset
	// attributes. The default is DefaultTimeCoordConfig().
	Time TimeCoordConfig

	// Interp configures the pressure interpolation. The default is
	// DefaultInterpOptions().
	Interp *InterpOptions

	// Log receives per-file progress messages. The default discards them.
	Log logrus.FieldLogger
}

// DefaultCombineOptions returns the default options for combining CCHDO
// hydrographic cast files.
func DefaultCombineOptions() *CombineOptions {
	return &CombineOptions{
		PressureCoord: "pressure",
		ConcatDim:     "time",
		Time:          DefaultTimeCoordConfig(),
		Interp:        DefaultInterpOptions(),
	}
}

// normalize fills in defaults for any option left unset.
func (o *CombineOptions) normalize() *CombineOptions {
	if o == nil {
		o = DefaultCombineOptions()
	}
	oo := *o
	if oo.PressureCoord == "" {
		oo.PressureCoord = "pressure"
	}
	if oo.ConcatDim == "" {
		oo.ConcatDim = "time"
	}
	if oo.Time.Attr == "" && oo.Time.RefVar == "" && oo.Time.Coord == "" {
		oo.Time = DefaultTimeCoordConfig()
	}
	if oo.Interp == nil {
		oo.Interp = DefaultInterpOptions()
	}
	if oo.Log == nil {
		l := logrus.New()
		l.Out = ioutil.Discard
		oo.Log = l
	}
	return &oo
}

// OpenMFDataset opens all cast files matching the given glob pattern,
// preprocesses each one, and combines the results into a single dataset.
// Files are combined in lexical path order. See OpenMFDatasetPaths for the
// preprocessing steps and failure behavior.
func OpenMFDataset(pattern string, targetPressure []float64, o *CombineOptions) (*Dataset, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("ctdcast: matching %s: %v", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("ctdcast: no files match %s", pattern)
	}
	sort.Strings(paths)
	return OpenMFDatasetPaths(paths, targetPressure, o)
}

// OpenMFDatasetPaths opens each of the given cast files in order, runs the
// per-file preprocessing pipeline — derive the time coordinate from
// metadata, promote length-matching coordinates onto the concatenation
// dimension, and interpolate onto the target pressure grid — and
// concatenates the results along the concatenation dimension into one
// combined dataset.
//
// Combination is all-or-nothing: the first file that fails to open or to
// pass through the pipeline aborts the whole operation, and the error names
// the file and the failing stage.
func OpenMFDatasetPaths(paths []string, targetPressure []float64, o *CombineOptions) (*Dataset, error) {
	o = o.normalize()
	if len(paths) == 0 {
		return nil, fmt.Errorf("ctdcast: no files to combine")
	}
	preprocess := Chain(
		Stage{"derive-time", func(ds *Dataset) (*Dataset, error) {
			return AddTimeCoord(ds, o.Time)
		}},
		Stage{"promote-coords", func(ds *Dataset) (*Dataset, error) {
			_, err := PromoteCoords(ds, o.ConcatDim)
			return ds, err
		}},
		Stage{"interpolate", func(ds *Dataset) (*Dataset, error) {
			return InterpolateCoord(ds, o.PressureCoord, targetPressure, o.Interp)
		}},
	)
	dss := make([]*Dataset, len(paths))
	for i, p := range paths {
		ds, err := OpenDataset(p)
		if err != nil {
			return nil, fmt.Errorf("ctdcast: file %s: %v", p, err)
		}
		ds, err = preprocess(ds)
		if err != nil {
			return nil, fmt.Errorf("ctdcast: file %s: %v", p, err)
		}
		o.Log.WithFields(logrus.Fields{
			"file": p,
			"vars": len(ds.Vars),
		}).Info("preprocessed cast")
		dss[i] = ds
	}
	out, err := Concat(o.ConcatDim, dss...)
	if err != nil {
		return nil, err
	}
	o.Log.WithFields(logrus.Fields{
		"files": len(paths),
		"dim":   o.ConcatDim,
	}).Info("combined casts")
	return out, nil
}
