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
	"fmt"
	"strings"

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Listening is a row of listening history.
type Listening struct {
	UserId    string `gorm:"column:user_id;type:varchar(256);not null" bson:"user_id"`
	SongId    string `gorm:"column:song_id;type:varchar(256);not null" bson:"song_id"`
	PlayCount int    `gorm:"column:play_count;not null" bson:"play_count"`
}

// Source loads listening history by name. The name is a file for CSV sources and
// a table or collection for databases.
type Source interface {
	// Load reads a whole dataset. No partial dataset is returned on failure.
	Load(ctx context.Context, name string) (*dataset.Dataset, error)
	// Save appends a dataset under a name.
	Save(ctx context.Context, name string, d *dataset.Dataset) error
	Close() error
}

// SourceError is returned for every failure of a source.
type SourceError struct {
	Source string
	Name   string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("data source %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("data source %s (%s): %v", e.Source, e.Name, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func newSourceError(uri, name string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Source: log.RedactDBURL(uri), Name: name, Err: err}
}

// Open connects to a source. Database URIs start with mysql://, postgres://,
// postgresql://, sqlite://, mongodb:// or mongodb+srv://. Anything else is a
// directory of CSV files, optionally prefixed by file://.
func Open(uri string, opts ...Option) (Source, error) {
	option := NewOptions(opts...)
	var (
		source Source
		err    error
	)
	switch {
	case strings.HasPrefix(uri, MySQLPrefix):
		source, err = openMySQL(uri, option)
	case strings.HasPrefix(uri, PostgresPrefix), strings.HasPrefix(uri, PostgreSQLPrefix):
		source, err = openPostgres(uri, option)
	case strings.HasPrefix(uri, SQLitePrefix):
		source, err = openSQLite(uri, option)
	case strings.HasPrefix(uri, MongoPrefix), strings.HasPrefix(uri, MongoSrvPrefix):
		source, err = openMongo(uri, option)
	default:
		source, err = openCSV(strings.TrimPrefix(uri, FilePrefix))
	}
	if err != nil {
		return nil, newSourceError(uri, "", errors.Trace(err))
	}
	log.Logger().Debug("open data source", zap.String("uri", log.RedactDBURL(uri)))
	return source, nil
}
