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

	"github.com/gorse-io/msd/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// MongoSource reads listening history from documents {user_id, song_id, play_count}.
type MongoSource struct {
	uri       string
	client    *mongo.Client
	dbName    string
	batchSize int
}

func openMongo(uri string, option Options) (*MongoSource, error) {
	source := &MongoSource{uri: uri, batchSize: option.BatchSize}
	// parse DSN and extract database name
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.Trace(err)
	}
	source.dbName = cs.Database
	if source.dbName == "" {
		return nil, errors.NotValidf("empty database name")
	}
	opts := options.Client()
	opts.Monitor = otelmongo.NewMonitor()
	opts.ApplyURI(uri)
	if option.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(option.MaxOpenConns))
	}
	if option.ConnMaxLifetime > 0 {
		opts.SetMaxConnIdleTime(option.ConnMaxLifetime)
	}
	if source.client, err = mongo.Connect(context.Background(), opts); err != nil {
		return nil, errors.Trace(err)
	}
	return source, nil
}

func (s *MongoSource) Load(ctx context.Context, name string) (*dataset.Dataset, error) {
	if err := ValidateName(name); err != nil {
		return nil, newSourceError(s.uri, name, errors.Trace(err))
	}
	c := s.client.Database(s.dbName).Collection(name)
	cursor, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}}))
	if err != nil {
		return nil, newSourceError(s.uri, name, errors.Trace(err))
	}
	defer cursor.Close(ctx)
	builder := dataset.NewBuilder()
	for cursor.Next(ctx) {
		var row Listening
		if err = cursor.Decode(&row); err != nil {
			return nil, newSourceError(s.uri, name, errors.Trace(err))
		}
		if err = builder.Set(row.UserId, row.SongId, row.PlayCount); err != nil {
			return nil, newSourceError(s.uri, name, errors.Trace(err))
		}
	}
	if err = cursor.Err(); err != nil {
		return nil, newSourceError(s.uri, name, errors.Trace(err))
	}
	return builder.Build(), nil
}

func (s *MongoSource) Save(ctx context.Context, name string, d *dataset.Dataset) error {
	if err := ValidateName(name); err != nil {
		return newSourceError(s.uri, name, errors.Trace(err))
	}
	c := s.client.Database(s.dbName).Collection(name)
	if _, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}); err != nil {
		return newSourceError(s.uri, name, errors.Trace(err))
	}
	docs := make([]interface{}, 0, d.CountFeedback())
	d.ForEach(func(userId, songId string, count int) {
		docs = append(docs, Listening{UserId: userId, SongId: songId, PlayCount: count})
	})
	for _, chunk := range lo.Chunk(docs, s.batchSize) {
		if _, err := c.InsertMany(ctx, chunk); err != nil {
			return newSourceError(s.uri, name, errors.Trace(err))
		}
	}
	return nil
}

func (s *MongoSource) Close() error {
	return errors.Trace(s.client.Disconnect(context.Background()))
}
