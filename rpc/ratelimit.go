// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/openpeg/pegd/fault"
)

// per-service defaults
const (
	rateLimitNode   = 200
	rateBurstNode   = 100
	rateLimitVault  = 50
	rateBurstVault  = 25
	rateLimitShare  = 200
	rateBurstShare  = 100
	rateLimitBridge = 50
	rateBurstBridge = 25
)

// limiting for a single request
func rateLimit(limiter *rate.Limiter) error {
	if nil == limiter {
		return nil
	}
	r := limiter.Reserve()
	if !r.OK() {
		return fault.RateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}

// limiting for a counted request
func rateLimitN(limiter *rate.Limiter, count int, maximumCount int) error {
	if nil == limiter {
		return nil
	}

	// invalid count gets limited as a single request
	if count <= 0 || count > maximumCount {
		r := limiter.Reserve()
		if !r.OK() {
			return fault.RateLimiting
		}
		time.Sleep(r.Delay())
		return fault.InvalidCount
	}

	r := limiter.ReserveN(time.Now(), count)
	if !r.OK() {
		return fault.RateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}
