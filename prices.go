// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/openpeg/pegd/configuration"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/oracle"
	"github.com/openpeg/pegd/priceband"
)

// build the oracle validity bounds, falling back to the standard
// values for any field the configuration leaves at zero
func oracleLimits(options configuration.OracleType) priceband.Limits {
	limits := priceband.DefaultLimits
	if options.StalenessSeconds > 0 {
		limits.StalenessLimit = time.Duration(options.StalenessSeconds) * time.Second
	}
	if options.DeviationTolerance > 0 {
		limits.DeviationTolerance = uint64(options.DeviationTolerance)
	}
	return limits
}

// select the price feed for this ledger
//
// only the fixed table from the configuration file is supported and
// only on the testing and local ledgers; the canonical ledger needs a
// real feed attached before it can issue
func priceSource(options configuration.OracleType) (oracle.Source, error) {
	if 0 == len(options.StaticPrices) {
		return nil, fmt.Errorf("no static_prices configured and no external feed is available")
	}
	if !mode.IsTesting() {
		return nil, fmt.Errorf("static_prices are only allowed on the testing and local ledgers")
	}

	table := oracle.NewStaticSource()
	now := time.Now()
	for asset, price := range options.StaticPrices {
		if price <= 0 {
			return nil, fmt.Errorf("static price for asset: %q is not positive", asset)
		}
		table.SetPrice(asset, uint64(price), uint64(price), now)
	}

	// fixed prices never go stale
	return pinnedSource{inner: table}, nil
}

// a source whose readings are re-stamped on every fetch so a fixed
// price table keeps working on a long-running local ledger
type pinnedSource struct {
	inner *oracle.StaticSource
}

func (s pinnedSource) Fetch(asset string) (oracle.Snapshot, error) {
	snapshot, err := s.inner.Fetch(asset)
	if nil != err {
		return oracle.Snapshot{}, err
	}
	snapshot.Timestamp = time.Now()
	return snapshot, nil
}
