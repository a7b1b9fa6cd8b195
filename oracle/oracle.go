// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package oracle - validated price snapshots
//
// wraps a price source with a short-lived cache so that one batch of
// work does not hammer the feed; staleness is always judged on the
// snapshot's own timestamp, never on the cache entry's age
package oracle

import (
	"encoding/binary"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/messagebus"
)

// Snapshot - one oracle reading, never persisted
type Snapshot struct {
	Asset     string
	Price     uint64 // millionths
	Secondary uint64 // cross-validation reference, e.g. a TWAP
	Timestamp time.Time
}

// Age - how old the reading is
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// Source - anything that can produce a price reading for an asset
type Source interface {
	Fetch(asset string) (Snapshot, error)
}

// globals
var globalData struct {
	sync.RWMutex
	log    *logger.L
	source Source
	cache  *gocache.Cache

	// set once during initialise
	initialised bool
}

// Initialise - attach the price source
func Initialise(source Source, cacheExpiry time.Duration) error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("oracle")
	if nil == globalData.log {
		return fault.InvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	if nil == source {
		return fault.MissingParameters
	}

	if cacheExpiry <= 0 {
		cacheExpiry = constants.SnapshotCacheExpiry
	}

	globalData.source = source
	globalData.cache = gocache.New(cacheExpiry, 2*cacheExpiry)

	globalData.initialised = true
	return nil
}

// Finalise - detach the price source
func Finalise() error {

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.Lock()
	globalData.source = nil
	globalData.cache = nil
	globalData.initialised = false
	globalData.Unlock()

	return nil
}

// Fetch - the current snapshot for an asset
//
// a deviation between the primary and secondary readings is reported
// on the event bus; the classifier makes the halt decision, this is
// purely a notification
func Fetch(asset string) (Snapshot, error) {

	globalData.RLock()
	source := globalData.source
	c := globalData.cache
	log := globalData.log
	globalData.RUnlock()

	if nil == source {
		return Snapshot{}, fault.NotInitialised
	}

	if cached, ok := c.Get(asset); ok {
		return cached.(Snapshot), nil
	}

	snapshot, err := source.Fetch(asset)
	if nil != err {
		log.Errorf("fetch: %s  error: %s", asset, err)
		return Snapshot{}, err
	}
	snapshot.Asset = asset

	c.Set(asset, snapshot, gocache.DefaultExpiration)

	deviation := snapshot.Price - snapshot.Secondary
	if snapshot.Secondary > snapshot.Price {
		deviation = snapshot.Secondary - snapshot.Price
	}
	if deviation > constants.PriceDeviationTolerance {
		log.Warnf("deviation: %s  primary: %d  secondary: %d", asset, snapshot.Price, snapshot.Secondary)
		primary := make([]byte, 8)
		binary.BigEndian.PutUint64(primary, snapshot.Price)
		secondary := make([]byte, 8)
		binary.BigEndian.PutUint64(secondary, snapshot.Secondary)
		messagebus.Bus.Events.Send("price-deviation", []byte(asset), primary, secondary)
	}

	return snapshot, nil
}

// Flush - drop all cached snapshots
//
// used when a fresh reading must be forced, e.g. after a halt
func Flush() {
	globalData.RLock()
	defer globalData.RUnlock()
	if nil != globalData.cache {
		globalData.cache.Flush()
	}
}
