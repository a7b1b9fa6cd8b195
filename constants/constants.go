// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package constants - tuning values shared between packages
package constants

import (
	"time"
)

// share token precision: fixed 18 fractional digits
const (
	SharePrecision = 18
)

// prices are carried in millionths, 1.000000 == 1_000_000
const (
	PriceScale = 1000000
)

// price band thresholds in millionths
const (
	ParityThreshold   = 998000
	DiscountThreshold = 995000
	SwapOnlyThreshold = 985000
)

// default oracle validation limits
const (
	PriceStalenessLimit     = 15 * time.Minute
	PriceDeviationTolerance = 5000 // 0.5% in millionths
)

// the maximum time an oracle snapshot is served from cache
const (
	SnapshotCacheExpiry = 30 * time.Second
)

// basis point scale for vault caps
const (
	CapScale = 10000
)

// the sum of all vault caps may exceed 100% up to this limit,
// leaving headroom for reallocation
const (
	MaximumTotalCap = 3 * CapScale
)

// redemption queue bounds
const (
	MaximumQueueLength  = 10000
	MaximumProcessBatch = 100
)
