// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vault

import (
	"encoding/binary"
	"time"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/messagebus"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/oracle"
	"github.com/openpeg/pegd/priceband"
	"github.com/openpeg/pegd/storage"
	"github.com/openpeg/pegd/token"
)

// CurrentBand - classify a vault's collateral price right now
//
// a fresh oracle snapshot is taken; the band is never sticky, each
// call judges the current reading on its own
func CurrentBand(id string) (priceband.Band, oracle.Snapshot, error) {

	globalData.RLock()
	v, ok := globalData.vaults[id]
	limits := globalData.limits
	globalData.RUnlock()

	if !ok || v.Deregistered {
		return priceband.Halted, oracle.Snapshot{}, fault.Unauthorized
	}

	snapshot, err := oracle.Fetch(v.Asset)
	if nil != err {
		return priceband.Halted, oracle.Snapshot{}, err
	}

	band := priceband.ClassifyWithLimits(snapshot.Price, snapshot.Secondary, snapshot.Age(time.Now()), limits)
	return band, snapshot, nil
}

// HaltCause - the precondition failure behind a Halted classification
func HaltCause(snapshot oracle.Snapshot) error {
	globalData.RLock()
	limits := globalData.limits
	globalData.RUnlock()
	return haltCause(snapshot, limits)
}

// map a Halted classification back to its precondition failure
func haltCause(snapshot oracle.Snapshot, limits priceband.Limits) error {
	age := snapshot.Age(time.Now())
	if age < 0 || age > limits.StalenessLimit {
		return fault.OracleStale
	}
	deviation := snapshot.Price - snapshot.Secondary
	if snapshot.Secondary > snapshot.Price {
		deviation = snapshot.Secondary - snapshot.Price
	}
	if deviation > limits.DeviationTolerance {
		return fault.OracleDeviation
	}
	return fault.PriceBelowThreshold
}

// Deposit - exchange collateral assets for newly minted shares
//
// the whole call either completes or leaves no trace: the pool total
// is only committed after the mint has succeeded
func Deposit(id string, assets uint64, receiver *account.Account) (uint64, error) {
	return deposit(id, assets, receiver, false)
}

func deposit(id string, assets uint64, receiver *account.Account, routed bool) (uint64, error) {

	if !mode.Is(mode.Normal) {
		return 0, fault.SystemPaused
	}
	if nil == receiver || receiver.IsZero() {
		return 0, fault.ZeroAddress
	}
	if 0 == assets {
		return 0, fault.ZeroAmount
	}

	settleLock.Lock()
	defer settleLock.Unlock()

	globalData.RLock()
	if !globalData.initialised {
		globalData.RUnlock()
		return 0, fault.NotInitialised
	}
	v, ok := globalData.vaults[id]
	if !ok || v.Deregistered {
		globalData.RUnlock()
		return 0, fault.Unauthorized
	}
	if v.Suspended {
		globalData.RUnlock()
		return 0, fault.VaultSuspended
	}
	asset := v.Asset
	minimum := v.MinimumDeposit
	totalAssets := v.TotalAssets
	parameters := v.parameters
	router := globalData.router
	limits := globalData.limits
	log := globalData.log
	globalData.RUnlock()

	if assets < minimum {
		return 0, fault.BelowMinimumDeposit
	}

	snapshot, err := oracle.Fetch(asset)
	if nil != err {
		return 0, err
	}

	band := priceband.ClassifyWithLimits(snapshot.Price, snapshot.Secondary, snapshot.Age(time.Now()), limits)
	switch band {
	case priceband.Halted:
		return 0, haltCause(snapshot, limits)

	case priceband.SwapOnly:
		// once routed a deposit may not be routed again
		if routed || nil == router {
			return 0, fault.SwapRequired
		}
		toVault, realized, err := router.Route(id, assets)
		if nil != err {
			return 0, err
		}
		log.Infof("routed: %s → %s  assets: %d  realized: %d", id, toVault, assets, realized)
		// settleLock is not reentrant
		settleLock.Unlock()
		shares, err := deposit(toVault, realized, receiver, true)
		settleLock.Lock()
		return shares, err
	}

	// the pool total must still fit after this deposit
	if totalAssets+assets < totalAssets {
		return 0, fault.PrecisionOverflow
	}

	price := band.MintPrice(snapshot.Price)

	shares, err := parameters.ToSharesAtPrice(assets, totalAssets, ledger.NetMinted(id), price)
	if nil != err {
		return 0, err
	}
	if 0 == shares {
		// dust deposit rounding to nothing
		return 0, fault.ZeroAmount
	}

	err = token.Mint(id, receiver, shares)
	if nil != err {
		return 0, err
	}

	// the mint committed, now commit the pool total
	globalData.Lock()
	v.TotalAssets += assets
	storage.Pool.Vaults.Put([]byte(v.Id), packVault(v))
	globalData.Unlock()

	log.Infof("deposit: %s  assets: %d  shares: %d  band: %s", id, assets, shares, band)
	messagebus.Bus.Events.Send("deposited", []byte(id), receiver.Bytes(), uint64Bytes(assets), uint64Bytes(shares))
	return shares, nil
}

// RedeemShares - settle a redemption against one vault
//
// converts the shares to assets at the current pool ratio, burns the
// owner's escrowed shares and reserves the assets; returns the asset
// amount reserved for claim
func RedeemShares(id string, owner *account.Account, shares uint64) (uint64, error) {

	if 0 == shares {
		return 0, fault.ZeroAmount
	}

	settleLock.Lock()
	defer settleLock.Unlock()

	globalData.RLock()
	if !globalData.initialised {
		globalData.RUnlock()
		return 0, fault.NotInitialised
	}
	v, ok := globalData.vaults[id]
	if !ok {
		globalData.RUnlock()
		return 0, fault.VaultNotFound
	}
	totalAssets := v.TotalAssets
	parameters := v.parameters
	log := globalData.log
	globalData.RUnlock()

	assets, err := parameters.ToAssets(shares, totalAssets, ledger.NetMinted(id))
	if nil != err {
		return 0, err
	}
	if assets > totalAssets {
		assets = totalAssets
	}

	err = token.BurnEscrow(id, owner, shares)
	if nil != err {
		return 0, err
	}

	globalData.Lock()
	v.TotalAssets -= assets
	storage.Pool.Vaults.Put([]byte(v.Id), packVault(v))
	globalData.Unlock()

	log.Infof("redeem: %s  shares: %d  assets: %d", id, shares, assets)
	return assets, nil
}

func uint64Bytes(n uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}
