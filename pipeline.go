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

import "fmt"

// TransformFunc maps a dataset to a new (or mutated) dataset.
type TransformFunc func(*Dataset) (*Dataset, error)

// Stage is a named pipeline step. The name appears in errors so failures
// can be attributed to the stage that caused them.
type Stage struct {
	Name      string
	Transform TransformFunc
}

// Chain combines the given stages into a single transform that applies
// them in the order given, first stage first. The first failing stage
// aborts the chain, and its error is wrapped with the stage name.
func Chain(stages ...Stage) TransformFunc {
	return func(ds *Dataset) (*Dataset, error) {
		var err error
		for _, s := range stages {
			ds, err = s.Transform(ds)
			if err != nil {
				return nil, fmt.Errorf("stage %s: %v", s.Name, err)
			}
		}
		return ds, nil
	}
}
