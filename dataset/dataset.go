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
	"fmt"
	"sort"

	"github.com/gorse-io/msd/common/heap"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Dataset is an immutable listening matrix. history maps a user to the play counts
// of the songs they listened to, and index maps a song to its sorted listeners.
// Returned maps and slices are shared and must not be modified.
type Dataset struct {
	history      map[string]map[string]int
	index        map[string][]string
	users        []string
	songs        []string
	feedback     int
	observations int
}

// NewDataset creates a dataset from a listening history. The history is copied.
func NewDataset(history map[string]map[string]int) (*Dataset, error) {
	builder := NewBuilder()
	for userId, songs := range history {
		builder.AddUser(userId)
		for songId, count := range songs {
			if err := builder.Set(userId, songId, count); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	return builder.Build(), nil
}

func (d *Dataset) CountUsers() int {
	return len(d.users)
}

func (d *Dataset) CountSongs() int {
	return len(d.songs)
}

// CountFeedback returns the number of distinct (user, song) pairs.
func (d *Dataset) CountFeedback() int {
	return d.feedback
}

// CountObservations returns the number of rows accepted while building the
// dataset, including rows collapsed into an existing (user, song) pair.
func (d *Dataset) CountObservations() int {
	return d.observations
}

// GetUsers returns users in lexicographic order.
func (d *Dataset) GetUsers() []string {
	return d.users
}

// GetSongs returns songs in lexicographic order.
func (d *Dataset) GetSongs() []string {
	return d.songs
}

func (d *Dataset) GetUserHistory(userId string) map[string]int {
	return d.history[userId]
}

// GetUserSongs returns the songs of a user in lexicographic order.
func (d *Dataset) GetUserSongs(userId string) []string {
	songs := lo.Keys(d.history[userId])
	sort.Strings(songs)
	return songs
}

// GetSongIndex returns the map from songs to their sorted listeners.
func (d *Dataset) GetSongIndex() map[string][]string {
	return d.index
}

// GetSongListeners returns the listeners of a song in lexicographic order.
func (d *Dataset) GetSongListeners(songId string) []string {
	return d.index[songId]
}

func (d *Dataset) HasUser(userId string) bool {
	_, exist := d.history[userId]
	return exist
}

func (d *Dataset) HasSong(songId string) bool {
	_, exist := d.index[songId]
	return exist
}

func (d *Dataset) Contains(userId, songId string) bool {
	_, exist := d.history[userId][songId]
	return exist
}

// PlayCount returns the play count of a song by a user, or 0 if absent.
func (d *Dataset) PlayCount(userId, songId string) int {
	return d.history[userId][songId]
}

// Popular returns the n songs with the most listeners. All songs are ranked if
// n <= 0. Ties are broken by song id.
func (d *Dataset) Popular(n int) []string {
	if n <= 0 || n > len(d.songs) {
		n = len(d.songs)
	}
	filter := heap.NewTopKFilter[string, int](n)
	for songId, listeners := range d.index {
		filter.Push(songId, len(listeners))
	}
	return filter.PopAllValues()
}

// ForEach iterates over (user, song, count) triples ordered by user then song.
func (d *Dataset) ForEach(f func(userId, songId string, count int)) {
	for _, userId := range d.users {
		for _, songId := range d.GetUserSongs(userId) {
			f(userId, songId, d.history[userId][songId])
		}
	}
}

func (d *Dataset) Stats() string {
	return fmt.Sprintf("Users: %d\tSongs: %d\tFeedback: %d", d.CountUsers(), d.CountSongs(), d.CountFeedback())
}

// Builder collects observations and builds a Dataset with a consistent song index.
type Builder struct {
	history      map[string]map[string]int
	observations int
}

func NewBuilder() *Builder {
	return &Builder{history: make(map[string]map[string]int)}
}

// AddUser registers a user, even if the user has no songs.
func (b *Builder) AddUser(userId string) {
	if _, exist := b.history[userId]; !exist {
		b.history[userId] = make(map[string]int)
	}
}

func (b *Builder) validate(userId, songId string, count int) error {
	if userId == "" {
		return errors.NotValidf("empty user id")
	}
	if songId == "" {
		return errors.NotValidf("empty song id of user %s", userId)
	}
	if count <= 0 {
		return errors.NotValidf("play count %d of (%s, %s)", count, userId, songId)
	}
	return nil
}

// Set records an observation. A later observation of the same pair overwrites
// the earlier one.
func (b *Builder) Set(userId, songId string, count int) error {
	if err := b.validate(userId, songId, count); err != nil {
		return errors.Trace(err)
	}
	b.AddUser(userId)
	b.history[userId][songId] = count
	b.observations++
	return nil
}

// Add records an observation unless the pair already exists, in which case the
// first play count is kept. It reports whether a new pair was created.
func (b *Builder) Add(userId, songId string, count int) (bool, error) {
	if err := b.validate(userId, songId, count); err != nil {
		return false, errors.Trace(err)
	}
	b.AddUser(userId)
	b.observations++
	if _, exist := b.history[userId][songId]; exist {
		return false, nil
	}
	b.history[userId][songId] = count
	return true, nil
}

// Build creates the dataset and resets the builder.
func (b *Builder) Build() *Dataset {
	d := &Dataset{
		history:      b.history,
		index:        make(map[string][]string),
		users:        lo.Keys(b.history),
		observations: b.observations,
	}
	sort.Strings(d.users)
	for _, userId := range d.users {
		for songId := range d.history[userId] {
			d.index[songId] = append(d.index[songId], userId)
			d.feedback++
		}
	}
	// users are visited in order, so listener lists are already sorted
	d.songs = lo.Keys(d.index)
	sort.Strings(d.songs)
	b.history = make(map[string]map[string]int)
	b.observations = 0
	return d
}
