// Copyright 2021 gorse Project Authors
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

package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorse-io/msd/dataset"
	"github.com/juju/errors"
)

// CSVSource reads "user,song,count" files from a directory.
type CSVSource struct {
	dir string
}

func openCSV(dir string) (*CSVSource, error) {
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !info.IsDir() {
		return nil, errors.NotValidf("directory %s", dir)
	}
	return &CSVSource{dir: dir}, nil
}

func (s *CSVSource) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

func (s *CSVSource) Load(ctx context.Context, name string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, newSourceError(s.dir, name, errors.Trace(err))
	}
	defer f.Close()
	d, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, newSourceError(s.dir, name, errors.Trace(err))
	}
	return d, nil
}

func (s *CSVSource) Save(_ context.Context, name string, d *dataset.Dataset) error {
	f, err := os.OpenFile(s.path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return newSourceError(s.dir, name, errors.Trace(err))
	}
	defer f.Close()
	writer := csv.NewWriter(f)
	d.ForEach(func(userId, songId string, count int) {
		if err == nil {
			err = writer.Write([]string{userId, songId, strconv.Itoa(count)})
		}
	})
	if err != nil {
		return newSourceError(s.dir, name, errors.Trace(err))
	}
	writer.Flush()
	return newSourceError(s.dir, name, errors.Trace(writer.Error()))
}

func (s *CSVSource) Close() error {
	return nil
}
