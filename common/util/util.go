// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/exp/constraints"
)

// ParseInts parses a comma separated list such as "1,2,10".
func ParseInts[T constraints.Integer](s string) ([]T, error) {
	fields := splitList(s)
	values := make([]T, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, errors.NotValidf("integer %q", field)
		}
		values = append(values, T(v))
	}
	return values, nil
}

// ParseFloats parses a comma separated list such as "0.5,0.8".
func ParseFloats[T constraints.Float](s string) ([]T, error) {
	fields := splitList(s)
	values := make([]T, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.NotValidf("float %q", field)
		}
		values = append(values, T(v))
	}
	return values, nil
}

func splitList(s string) []string {
	var fields []string
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}
