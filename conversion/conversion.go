// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package conversion - pure share/asset arithmetic
//
// converts between a collateral asset's native precision and the
// fixed 18 digit share precision; all conversions round down and
// carry fixed virtual share/asset offsets so a near-empty pool
// cannot have its exchange rate inflated by a donation
package conversion

import (
	"math/big"

	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/fault"
)

// Parameters - per-vault conversion constants, fixed at registration
type Parameters struct {
	Precision     uint64   // asset fractional digits, 0..18
	Multiplier    *big.Int // 10^(SharePrecision - Precision)
	VirtualShares *big.Int
	VirtualAssets *big.Int // in normalised share-precision units
}

// 2^64 - 1 as a big int, any conversion result above this is rejected
var maxAmount = new(big.Int).SetUint64(^uint64(0))

var priceScale = big.NewInt(constants.PriceScale)

// NewParameters - derive conversion constants for an asset precision
//
// the virtual offsets are one smallest asset unit expressed in share
// precision; they are always nonzero and never change afterwards
func NewParameters(precision uint64) (*Parameters, error) {
	if precision > constants.SharePrecision {
		return nil, fault.InvalidPrecision
	}

	multiplier := new(big.Int).Exp(
		big.NewInt(10),
		big.NewInt(int64(constants.SharePrecision-precision)),
		nil,
	)

	return &Parameters{
		Precision:     precision,
		Multiplier:    multiplier,
		VirtualShares: new(big.Int).Set(multiplier),
		VirtualAssets: new(big.Int).Set(multiplier),
	}, nil
}

// ToShares - shares minted for a deposit of assets at parity
//
// rounds down: a depositor never receives a fractional share in
// their favour
func (p *Parameters) ToShares(assets uint64, totalAssets uint64, totalShares uint64) (uint64, error) {
	return p.ToSharesAtPrice(assets, totalAssets, totalShares, constants.PriceScale)
}

// ToSharesAtPrice - shares minted for a deposit of assets
//
// price is in millionths and is applied multiplicatively before the
// pool ratio, so a discounted regime mints fewer shares per asset;
// multiplication always precedes division to avoid truncation to
// zero on small inputs
func (p *Parameters) ToSharesAtPrice(assets uint64, totalAssets uint64, totalShares uint64, price uint64) (uint64, error) {

	if 0 == price || price > constants.PriceScale {
		return 0, fault.InvalidItem
	}

	// normalise to share precision
	assetsN := new(big.Int).SetUint64(assets)
	assetsN.Mul(assetsN, p.Multiplier)

	// apply the price factor, parity is a no-op
	if constants.PriceScale != price {
		assetsN.Mul(assetsN, new(big.Int).SetUint64(price))
		assetsN.Quo(assetsN, priceScale)
	}

	totalAssetsN := new(big.Int).SetUint64(totalAssets)
	totalAssetsN.Mul(totalAssetsN, p.Multiplier)

	// shares = assetsN * (totalShares + virtualShares) / (totalAssetsN + virtualAssets)
	numerator := new(big.Int).SetUint64(totalShares)
	numerator.Add(numerator, p.VirtualShares)
	numerator.Mul(numerator, assetsN)

	denominator := totalAssetsN.Add(totalAssetsN, p.VirtualAssets)

	shares := numerator.Quo(numerator, denominator)
	if shares.Cmp(maxAmount) > 0 {
		return 0, fault.PrecisionOverflow
	}
	return shares.Uint64(), nil
}

// ToAssets - assets owed for a redemption of shares
//
// rounds down twice, once in the pool ratio and once de-normalising
// back to asset precision: a withdrawer never receives more than
// their exact entitlement
func (p *Parameters) ToAssets(shares uint64, totalAssets uint64, totalShares uint64) (uint64, error) {

	totalAssetsN := new(big.Int).SetUint64(totalAssets)
	totalAssetsN.Mul(totalAssetsN, p.Multiplier)

	// assetsN = shares * (totalAssetsN + virtualAssets) / (totalShares + virtualShares)
	numerator := totalAssetsN.Add(totalAssetsN, p.VirtualAssets)
	numerator.Mul(numerator, new(big.Int).SetUint64(shares))

	denominator := new(big.Int).SetUint64(totalShares)
	denominator.Add(denominator, p.VirtualShares)

	assetsN := numerator.Quo(numerator, denominator)

	// back to asset precision
	assets := assetsN.Quo(assetsN, p.Multiplier)
	if assets.Cmp(maxAmount) > 0 {
		return 0, fault.PrecisionOverflow
	}
	return assets.Uint64(), nil
}
