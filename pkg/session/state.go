/*
 * hls-bridge is a reverse proxy that relays and rewrites HLS streams from IPTV providers.
 * Copyright (C) 2025  Lucas Duport
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package session tracks per-upstream-session state: the playlist most
// recently requested and the cookie most recently issued by the origin.
// Entries are keyed by the session token extracted from the URL path; URLs
// with no recognizable token share a single default slot.
package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lucasduport/hls-bridge/pkg/utils"
)

// DefaultCacheSize bounds the session cache when no size is configured.
const DefaultCacheSize = 256

type record struct {
	lastPlaylistURL string
	lastCookie      string
}

// Snapshot is a point-in-time copy of one session's state.
type Snapshot struct {
	LastPlaylistURL string
	LastCookie      string
}

// Store is a bounded, LRU-evicted session cache. Both fields of a record are
// monotonically overwritten; only the most recent value survives. The mutex
// is held only for map access, never across network I/O.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *record]
}

// NewStore creates a session store holding at most size entries.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *record](size)
	if err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}
	return &Store{cache: c}, nil
}

// RecordPlaylist remembers the playlist URL for a session. Called before the
// playlist fetch is issued, so parallel segment requests already resolve the
// right Referer while the fetch is in flight.
func (s *Store) RecordPlaylist(key, playlistURL string) {
	if playlistURL == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.get(key)
	r.lastPlaylistURL = playlistURL
}

// RecordCookie overwrites the session cookie unconditionally.
func (s *Store) RecordCookie(key, cookie string) {
	if cookie == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.get(key)
	r.lastCookie = cookie
}

// Snapshot returns a copy of the session's current state. Unknown sessions
// yield a zero snapshot.
func (s *Store) Snapshot(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.cache.Get(key)
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		LastPlaylistURL: r.lastPlaylistURL,
		LastCookie:      r.lastCookie,
	}
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// get returns the record for key, creating it if absent. Caller holds s.mu.
func (s *Store) get(key string) *record {
	if r, ok := s.cache.Get(key); ok {
		return r
	}
	r := &record{}
	if evicted := s.cache.Add(key, r); evicted {
		utils.DebugLog("Session cache full, evicted least recently used entry")
	}
	return r
}
