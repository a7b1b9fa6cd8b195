// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package priceband - classify a validated price into an operating regime
//
// the classifier is a pure function of the latest oracle reading; no
// regime is ever cached, every call re-derives the band from scratch
// so a recovered price immediately reopens the system
package priceband

import (
	"time"

	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/fault"
)

// Band - the operating regime for a collateral price
type Band int

// all possible bands
const (
	Parity   Band = iota // price ≥ 0.998: mint and redeem at the calibrated rate
	Discount             // 0.995 ≤ price < 0.998: mint at the oracle rate
	SwapOnly             // 0.985 ≤ price < 0.995: deposits must swap, redemptions go to the basket
	Halted               // price < 0.985, stale or deviant oracle: refuse everything but claims
)

// Limits - oracle validity bounds
type Limits struct {
	DeviationTolerance uint64        // millionths
	StalenessLimit     time.Duration //
}

// DefaultLimits - the standard validity bounds
var DefaultLimits = Limits{
	DeviationTolerance: constants.PriceDeviationTolerance,
	StalenessLimit:     constants.PriceStalenessLimit,
}

// Classify - derive the band from a price reading using the default limits
func Classify(primary uint64, secondary uint64, age time.Duration) Band {
	return ClassifyWithLimits(primary, secondary, age, DefaultLimits)
}

// ClassifyWithLimits - derive the band from a price reading
//
// validity is a precondition to evaluation: a stale or deviant
// reading halts regardless of the raw price value
func ClassifyWithLimits(primary uint64, secondary uint64, age time.Duration, limits Limits) Band {

	if age < 0 || age > limits.StalenessLimit {
		return Halted
	}

	deviation := primary - secondary
	if secondary > primary {
		deviation = secondary - primary
	}
	if deviation > limits.DeviationTolerance {
		return Halted
	}

	switch {
	case primary >= constants.ParityThreshold:
		return Parity
	case primary >= constants.DiscountThreshold:
		return Discount
	case primary >= constants.SwapOnlyThreshold:
		return SwapOnly
	default:
		return Halted
	}
}

// MintPrice - the price factor a deposit converts at, in millionths
//
// only meaningful for Parity and Discount
func (band Band) MintPrice(primary uint64) uint64 {
	if Parity == band {
		return constants.PriceScale
	}
	return primary
}

// internal conversion
func toString(band Band) ([]byte, error) {
	switch band {
	case Parity:
		return []byte("Parity"), nil
	case Discount:
		return []byte("Discount"), nil
	case SwapOnly:
		return []byte("SwapOnly"), nil
	case Halted:
		return []byte("Halted"), nil
	default:
		return []byte{}, fault.InvalidItem
	}
}

// String - band rendered as its name
func (band Band) String() string {
	s, err := toString(band)
	if nil != err {
		return "*Unknown*"
	}
	return string(s)
}

// MarshalText - convert band to text
func (band Band) MarshalText() ([]byte, error) {
	return toString(band)
}
