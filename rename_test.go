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
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
)

func TestPromoteCoords(t *testing.T) {
	ds := testCast(t, 7, "2015-01-03 11:00:00")
	ds, err := AddTimeCoord(ds, DefaultTimeCoordConfig())
	if err != nil {
		t.Fatal(err)
	}
	r, err := PromoteCoords(ds, "time")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.Promoted, []string{"station", "time"}) {
		t.Errorf("promoted: want [station time], have %v", r.Promoted)
	}
	if !reflect.DeepEqual(r.Skipped, []string{"pressure"}) {
		t.Errorf("skipped: want [pressure], have %v", r.Skipped)
	}
	st := ds.Coords["station"]
	if !reflect.DeepEqual(st.Dims, []string{"time"}) {
		t.Errorf("station dimensions: want [time], have %v", st.Dims)
	}
	if st.Data.Elements[0] != 7 {
		t.Errorf("station value: want 7, have %g", st.Data.Elements[0])
	}
	if _, ok := ds.Dims["station"]; ok {
		t.Error("unused station dimension should have been pruned")
	}
	if l := ds.Dims["time"]; l != 1 {
		t.Errorf("time dimension length: want 1, have %d", l)
	}
	// The skipped coordinate keeps its own dimension.
	p := ds.Coords["pressure"]
	if !reflect.DeepEqual(p.Dims, []string{"pressure"}) {
		t.Errorf("pressure dimensions: want [pressure], have %v", p.Dims)
	}
}

func TestPromoteCoords_valuesAndAttrs(t *testing.T) {
	ds := NewDataset()
	tc := sparse.ZerosDense(2)
	copy(tc.Elements, []float64{100, 200})
	if err := ds.SetCoord("time", &DataVar{Dims: []string{"time"}, Data: tc}); err != nil {
		t.Fatal(err)
	}
	lat := sparse.ZerosDense(2)
	copy(lat.Elements, []float64{-61.5, -60.2})
	err := ds.SetCoord("lat", &DataVar{
		Dims:  []string{"profile"},
		Data:  lat,
		Attrs: map[string]interface{}{"units": "degrees_north"},
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := PromoteCoords(ds, "time")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.Promoted, []string{"lat"}) {
		t.Errorf("promoted: want [lat], have %v", r.Promoted)
	}
	l := ds.Coords["lat"]
	if !reflect.DeepEqual(l.Dims, []string{"time"}) {
		t.Errorf("lat dimensions: want [time], have %v", l.Dims)
	}
	if !reflect.DeepEqual(l.Data.Elements, []float64{-61.5, -60.2}) {
		t.Errorf("lat values changed: %v", l.Data.Elements)
	}
	if l.Attrs["units"] != "degrees_north" {
		t.Errorf("lat attributes not preserved: %v", l.Attrs)
	}
}

func TestPromoteCoords_skipMismatch(t *testing.T) {
	ds := NewDataset()
	tc := sparse.ZerosDense(2)
	if err := ds.SetCoord("time", &DataVar{Dims: []string{"time"}, Data: tc}); err != nil {
		t.Fatal(err)
	}
	b := sparse.ZerosDense(3)
	if err := ds.SetCoord("bottle", &DataVar{Dims: []string{"bottle"}, Data: b}); err != nil {
		t.Fatal(err)
	}
	r, err := PromoteCoords(ds, "time")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Promoted) != 0 {
		t.Errorf("promoted: want none, have %v", r.Promoted)
	}
	if !reflect.DeepEqual(r.Skipped, []string{"bottle"}) {
		t.Errorf("skipped: want [bottle], have %v", r.Skipped)
	}
	if !reflect.DeepEqual(ds.Coords["bottle"].Dims, []string{"bottle"}) {
		t.Errorf("bottle should keep its own dimension; have %v", ds.Coords["bottle"].Dims)
	}
	if l := ds.Dims["bottle"]; l != 3 {
		t.Errorf("bottle dimension length: want 3, have %d", l)
	}
}

func TestPromoteCoords_missingDim(t *testing.T) {
	ds := testCast(t, 1, "2015-01-03 11:00:00")
	if _, err := PromoteCoords(ds, "cruise"); err == nil ||
		!strings.Contains(err.Error(), "cruise") {
		t.Errorf("want lookup error naming the dimension, have %v", err)
	}
}
