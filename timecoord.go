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
	"time"

	"github.com/ctessum/sparse"
)

// TimeUnits is the units attribute attached to derived time coordinates.
const TimeUnits = "seconds since 1970-01-01 00:00:00 UTC"

// defaultTimeLayouts are the time layouts AddTimeCoord tries, in order,
// when the configuration does not specify its own.
var defaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"20060102150405",
	"2006-01-02",
}

// TimeCoordConfig names the pieces AddTimeCoord needs: which global
// attribute holds the cast time, which variable's dimension carries the new
// coordinate, and what the coordinate is called.
type TimeCoordConfig struct {
	// Attr is the global string attribute holding the cast time.
	Attr string

	// RefVar is the variable whose single dimension the new coordinate is
	// attached along.
	RefVar string

	// Coord is the name of the derived time coordinate.
	Coord string

	// Layouts are the time layouts tried, in order, when parsing the
	// attribute. If empty, a default set covering RFC3339 and common
	// space-separated and compact forms is used.
	Layouts []string
}

// DefaultTimeCoordConfig returns the configuration matching CCHDO
// hydrographic cast files: the Cast_start_UTC attribute, the station
// variable's dimension, and a coordinate named time.
func DefaultTimeCoordConfig() TimeCoordConfig {
	return TimeCoordConfig{Attr: "Cast_start_UTC", RefVar: "station", Coord: "time"}
}

// valid checks that the configuration names all of its pieces.
func (cfg TimeCoordConfig) valid() error {
	if cfg.Attr == "" || cfg.RefVar == "" || cfg.Coord == "" {
		return fmt.Errorf("ctdcast: time coordinate config must name an attribute, a reference variable, and a coordinate; have %+v", cfg)
	}
	return nil
}

// AddTimeCoord parses the configured global attribute into a UTC instant
// and attaches it as a coordinate along the single dimension of the
// configured reference variable, stored as Unix seconds with a units
// attribute. If the dataset already has a dimension with the coordinate's
// name, the dataset is returned unchanged.
func AddTimeCoord(ds *Dataset, cfg TimeCoordConfig) (*Dataset, error) {
	if err := cfg.valid(); err != nil {
		return nil, err
	}
	if _, ok := ds.Dims[cfg.Coord]; ok {
		return ds, nil
	}
	av, ok := ds.Attrs[cfg.Attr]
	if !ok {
		return nil, fmt.Errorf("ctdcast: attribute %s is not in dataset", cfg.Attr)
	}
	s, ok := av.(string)
	if !ok {
		return nil, fmt.Errorf("ctdcast: attribute %s is %T, not a string", cfg.Attr, av)
	}
	layouts := cfg.Layouts
	if len(layouts) == 0 {
		layouts = defaultTimeLayouts
	}
	t, err := parseTimeUTC(s, layouts)
	if err != nil {
		return nil, fmt.Errorf("ctdcast: attribute %s: %v", cfg.Attr, err)
	}

	ref, ok := ds.Vars[cfg.RefVar]
	if !ok {
		ref, ok = ds.Coords[cfg.RefVar]
	}
	if !ok {
		return nil, fmt.Errorf("ctdcast: reference variable %s is not in dataset", cfg.RefVar)
	}
	if len(ref.Dims) != 1 {
		return nil, fmt.Errorf("ctdcast: reference variable %s has %d dimensions; want 1",
			cfg.RefVar, len(ref.Dims))
	}
	d := ref.Dims[0]
	data := sparse.ZerosDense(ds.Dims[d])
	for i := range data.Elements {
		data.Elements[i] = float64(t.Unix())
	}
	err = ds.SetCoord(cfg.Coord, &DataVar{
		Dims:  []string{d},
		Data:  data,
		Attrs: map[string]interface{}{"units": TimeUnits},
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// parseTimeUTC parses s with the first layout that accepts it,
// interpreting times without an explicit zone as UTC.
func parseTimeUTC(s string, layouts []string) (time.Time, error) {
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}
