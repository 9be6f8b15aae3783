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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// writeCast writes a single-cast dataset to a NetCDF file.
func writeCast(t *testing.T, dir, name string, station float64, start string) string {
	t.Helper()
	ds := testCast(t, station, start)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := ds.Write(f); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenMFDataset(t *testing.T) {
	dir, err := ioutil.TempDir("", "ctdcast")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	writeCast(t, dir, "cast_a.nc", 1, "2015-01-03 11:00:00")
	writeCast(t, dir, "cast_b.nc", 2, "2015-01-04 12:30:00")

	ds, err := OpenMFDataset(filepath.Join(dir, "*.nc"), []float64{5, 15, 25}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if l := ds.Dims["time"]; l != 2 {
		t.Fatalf("time dimension length: want 2, have %d", l)
	}
	if got := ds.Coords["station"].Data.Elements; !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("station values (file order): want [1 2], have %v", got)
	}
	wantTimes := []float64{
		float64(time.Date(2015, 1, 3, 11, 0, 0, 0, time.UTC).Unix()),
		float64(time.Date(2015, 1, 4, 12, 30, 0, 0, time.UTC).Unix()),
	}
	if got := ds.Coords["time"].Data.Elements; !reflect.DeepEqual(got, wantTimes) {
		t.Errorf("time values: want %v, have %v", wantTimes, got)
	}
	ti := ds.Vars["temp_i"]
	if !reflect.DeepEqual(ti.Dims, []string{"time", "pressure_i"}) {
		t.Fatalf("temp_i dimensions: want [time pressure_i], have %v", ti.Dims)
	}
	// Cast 2's surface temperature is offset by one degree (see testCast).
	want := []float64{14.5, 13.5, 12.5, 15, 13.5, 12.5}
	for i, w := range want {
		if different(ti.Data.Elements[i], w, testTolerance) {
			t.Errorf("temp_i[%d]: want %g, have %g", i, w, ti.Data.Elements[i])
		}
	}
	if got := ds.Coords["pressure_i"].Data.Elements; !reflect.DeepEqual(got, []float64{5, 15, 25}) {
		t.Errorf("pressure_i values: want [5 15 25], have %v", got)
	}
	if _, ok := ds.Vars["temp"]; ok {
		t.Error("uninterpolated temp should not survive preprocessing")
	}
}

func TestOpenMFDataset_noMatch(t *testing.T) {
	dir, err := ioutil.TempDir("", "ctdcast")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if _, err := OpenMFDataset(filepath.Join(dir, "*.nc"), []float64{5}, nil); err == nil {
		t.Error("empty glob: want error")
	}
}

func TestOpenMFDatasetPaths_failureAborts(t *testing.T) {
	dir, err := ioutil.TempDir("", "ctdcast")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	good := writeCast(t, dir, "cast_a.nc", 1, "2015-01-03 11:00:00")

	bad := filepath.Join(dir, "cast_b.nc")
	if err := ioutil.WriteFile(bad, []byte("not a netcdf file"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = OpenMFDatasetPaths([]string{good, bad}, []float64{5, 15, 25}, nil)
	if err == nil || !strings.Contains(err.Error(), "cast_b.nc") {
		t.Errorf("unreadable file: want error naming the file, have %v", err)
	}
}

func TestOpenMFDatasetPaths_stageError(t *testing.T) {
	dir, err := ioutil.TempDir("", "ctdcast")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := writeCast(t, dir, "cast_a.nc", 1, "2015-01-03 11:00:00")

	o := DefaultCombineOptions()
	o.Time.Attr = "No_such_attribute"
	_, err = OpenMFDatasetPaths([]string{path}, []float64{5, 15, 25}, o)
	if err == nil || !strings.Contains(err.Error(), "cast_a.nc") ||
		!strings.Contains(err.Error(), "stage derive-time") {
		t.Errorf("want error naming file and stage, have %v", err)
	}
}

func TestDatasetReadWrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "ctdcast")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := writeCast(t, dir, "cast.nc", 3, "2015-01-03 11:00:00")

	ds, err := OpenDataset(path)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Attrs["Cast_start_UTC"] != "2015-01-03 11:00:00" {
		t.Errorf("global attribute: have %v", ds.Attrs["Cast_start_UTC"])
	}
	if _, ok := ds.Coords["pressure"]; !ok {
		t.Error("pressure should be read back as a coordinate")
	}
	if _, ok := ds.Coords["station"]; !ok {
		t.Error("station should be read back as a coordinate")
	}
	v, err := ds.Var("temp")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{17, 14, 13, 12} // surface offset by station-1
	if !reflect.DeepEqual(v.Data.Elements, want) {
		t.Errorf("temp values: want %v, have %v", want, v.Data.Elements)
	}
	if v.Attrs["units"] != "degC" {
		t.Errorf("temp units attribute: have %v", v.Attrs["units"])
	}
	if ds.Dims["pressure"] != 4 || ds.Dims["station"] != 1 {
		t.Errorf("dimensions: have %v", ds.Dims)
	}
}
