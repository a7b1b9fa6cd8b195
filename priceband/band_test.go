// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package priceband_test

import (
	"testing"
	"time"

	"github.com/openpeg/pegd/priceband"
)

// band boundaries in millionths
func TestClassify(t *testing.T) {

	testCases := []struct {
		primary   uint64
		secondary uint64
		age       time.Duration
		expected  priceband.Band
	}{
		// clean prices across the bands
		{1000000, 1000000, time.Minute, priceband.Parity},
		{998000, 998000, time.Minute, priceband.Parity},
		{997999, 997999, time.Minute, priceband.Discount},
		{995000, 995000, time.Minute, priceband.Discount},
		{994999, 994999, time.Minute, priceband.SwapOnly},
		{985000, 985000, time.Minute, priceband.SwapOnly},
		{984999, 984999, time.Minute, priceband.Halted},
		{980000, 980000, time.Minute, priceband.Halted},

		// deviation beyond tolerance halts even at parity
		{1000000, 990000, time.Minute, priceband.Halted},
		{990000, 1000000, time.Minute, priceband.Halted},
		{1000000, 995001, time.Minute, priceband.Parity}, // within 0.5%

		// staleness halts regardless of price
		{1000000, 1000000, 16 * time.Minute, priceband.Halted},
		{1000000, 1000000, -time.Minute, priceband.Halted},
	}

	for i, tc := range testCases {
		band := priceband.Classify(tc.primary, tc.secondary, tc.age)
		if tc.expected != band {
			t.Errorf("%d: price %d/%d age %s gave %s  expected: %s",
				i, tc.primary, tc.secondary, tc.age, band, tc.expected)
		}
	}
}

// repeated classification is memoryless: a halt is not sticky
func TestNoStickyState(t *testing.T) {

	if priceband.Halted != priceband.Classify(980000, 980000, time.Minute) {
		t.Fatal("bad price did not halt")
	}

	// same call sequence, recovered price: immediately back to parity
	if priceband.Parity != priceband.Classify(999000, 999000, time.Minute) {
		t.Error("recovered price did not reopen")
	}
}

func TestMintPrice(t *testing.T) {

	if 1000000 != priceband.Parity.MintPrice(999000) {
		t.Error("parity must mint at the calibrated rate")
	}
	if 996000 != priceband.Discount.MintPrice(996000) {
		t.Error("discount must mint at the oracle rate")
	}
}

func TestString(t *testing.T) {

	names := map[priceband.Band]string{
		priceband.Parity:   "Parity",
		priceband.Discount: "Discount",
		priceband.SwapOnly: "SwapOnly",
		priceband.Halted:   "Halted",
	}
	for band, expected := range names {
		if expected != band.String() {
			t.Errorf("actual: %q  expected: %q", band.String(), expected)
		}
	}
	if "*Unknown*" != priceband.Band(99).String() {
		t.Error("unknown band did not render as unknown")
	}
}
