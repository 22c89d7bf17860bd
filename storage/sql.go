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
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/dataset"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	_ "modernc.org/sqlite"
)

// SQLDriver identifies the database behind a SQLSource.
type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

func (d SQLDriver) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	}
	return "unknown"
}

// SQLSource reads listening history from a table of (user_id, song_id, play_count).
type SQLSource struct {
	uri       string
	client    *sql.DB
	gormDB    *gorm.DB
	batchSize int
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	log.Logger().Warn(fmt.Sprintf(format, args...))
}

func NewGORMConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		CreateBatchSize:        1000,
		SkipDefaultTransaction: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}
}

func openSQL(uri, driverName, dsn string, driver SQLDriver, system attribute.KeyValue, option Options) (*SQLSource, error) {
	source := &SQLSource{uri: uri, batchSize: option.BatchSize}
	var err error
	if source.client, err = otelsql.Open(driverName, dsn,
		otelsql.WithAttributes(system),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	); err != nil {
		return nil, errors.Trace(err)
	}
	ApplySQLPool(source.client, option)
	var dialector gorm.Dialector
	switch driver {
	case MySQL:
		dialector = mysql.New(mysql.Config{Conn: source.client})
	case Postgres:
		dialector = postgres.New(postgres.Config{Conn: source.client})
	default:
		dialector = sqlite.Dialector{Conn: source.client}
	}
	if source.gormDB, err = gorm.Open(dialector, NewGORMConfig()); err != nil {
		_ = source.client.Close()
		return nil, errors.Trace(err)
	}
	log.Logger().Debug("connect to sql database", zap.Stringer("driver", driver))
	return source, nil
}

func openMySQL(uri string, option Options) (*SQLSource, error) {
	dsn, err := AppendMySQLParams(uri[len(MySQLPrefix):], map[string]string{
		"parseTime": "true",
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return openSQL(uri, "mysql", dsn, MySQL, semconv.DBSystemMySQL, option)
}

func openPostgres(uri string, option Options) (*SQLSource, error) {
	return openSQL(uri, "postgres", uri, Postgres, semconv.DBSystemPostgreSQL, option)
}

func openSQLite(uri string, option Options) (*SQLSource, error) {
	dsn, err := AppendURLParams(uri, []lo.Tuple2[string, string]{
		{"_pragma", "busy_timeout(10000)"},
		{"_pragma", "journal_mode(wal)"},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return openSQL(uri, "sqlite", dsn[len(SQLitePrefix):], SQLite, semconv.DBSystemSqlite, option)
}

// Load runs SELECT user_id, song_id, play_count FROM <name> ORDER BY user_id.
func (s *SQLSource) Load(ctx context.Context, name string) (*dataset.Dataset, error) {
	if err := ValidateName(name); err != nil {
		return nil, newSourceError(s.uri, name, errors.Trace(err))
	}
	rows, err := s.gormDB.WithContext(ctx).Table(name).
		Select("user_id, song_id, play_count").
		Order("user_id").
		Rows()
	if err != nil {
		return nil, newSourceError(s.uri, name, errors.Trace(err))
	}
	defer rows.Close()
	builder := dataset.NewBuilder()
	for rows.Next() {
		var row Listening
		if err = rows.Scan(&row.UserId, &row.SongId, &row.PlayCount); err != nil {
			return nil, newSourceError(s.uri, name, errors.Trace(err))
		}
		if err = builder.Set(row.UserId, row.SongId, row.PlayCount); err != nil {
			return nil, newSourceError(s.uri, name, errors.Trace(err))
		}
	}
	if err = rows.Err(); err != nil {
		return nil, newSourceError(s.uri, name, errors.Trace(err))
	}
	return builder.Build(), nil
}

// Save creates the table if needed and inserts the dataset.
func (s *SQLSource) Save(ctx context.Context, name string, d *dataset.Dataset) error {
	if err := ValidateName(name); err != nil {
		return newSourceError(s.uri, name, errors.Trace(err))
	}
	tx := s.gormDB.WithContext(ctx)
	if err := tx.Table(name).AutoMigrate(&Listening{}); err != nil {
		return newSourceError(s.uri, name, errors.Trace(err))
	}
	rows := make([]Listening, 0, d.CountFeedback())
	d.ForEach(func(userId, songId string, count int) {
		rows = append(rows, Listening{UserId: userId, SongId: songId, PlayCount: count})
	})
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Table(name).CreateInBatches(rows, s.batchSize).Error; err != nil {
		return newSourceError(s.uri, name, errors.Trace(err))
	}
	return nil
}

func (s *SQLSource) Close() error {
	return errors.Trace(s.client.Close())
}
