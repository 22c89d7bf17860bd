// Copyright 2025 gorse Project Authors
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

package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ReadCSV loads a dataset from lines of "user,song,count" without a header.
// Blank lines are skipped. A repeated (user, song) pair keeps the last count.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	builder := NewBuilder()
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		line, _ := reader.FieldPos(0)
		count, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", line)
		}
		if err = builder.Set(strings.TrimSpace(record[0]), strings.TrimSpace(record[1]), count); err != nil {
			return nil, errors.Annotatef(err, "line %d", line)
		}
	}
	return builder.Build(), nil
}
