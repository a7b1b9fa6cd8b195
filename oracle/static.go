// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package oracle

import (
	"sync"
	"time"

	"github.com/openpeg/pegd/fault"
)

// StaticSource - fixed price table, for local ledgers and testing
type StaticSource struct {
	sync.RWMutex
	prices map[string]Snapshot
}

// NewStaticSource - create an empty price table
func NewStaticSource() *StaticSource {
	return &StaticSource{
		prices: make(map[string]Snapshot),
	}
}

// SetPrice - install or replace a reading
func (s *StaticSource) SetPrice(asset string, price uint64, secondary uint64, timestamp time.Time) {
	s.Lock()
	s.prices[asset] = Snapshot{
		Asset:     asset,
		Price:     price,
		Secondary: secondary,
		Timestamp: timestamp,
	}
	s.Unlock()
}

// Fetch - implement the Source interface
func (s *StaticSource) Fetch(asset string) (Snapshot, error) {
	s.RLock()
	defer s.RUnlock()
	snapshot, ok := s.prices[asset]
	if !ok {
		return Snapshot{}, fault.VaultNotFound
	}
	return snapshot, nil
}
