// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package vault - registry of collateral pools
//
// each vault is an independently operated collateral pool authorised
// to mint and burn the share token, subject to a cap expressed in
// basis points of the global issued supply; the registry also owns
// the authorisation check the token surface consults
package vault

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/conversion"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/messagebus"
	"github.com/openpeg/pegd/oracle"
	"github.com/openpeg/pegd/priceband"
	"github.com/openpeg/pegd/storage"
)

// Vault - one registered collateral pool
type Vault struct {
	Id             string
	Asset          string // oracle symbol of the collateral
	Cap            uint64 // basis points of global issued supply
	Precision      uint64
	MinimumDeposit uint64
	TotalAssets    uint64
	Suspended      bool
	Deregistered   bool

	parameters *conversion.Parameters
}

// SwapRouter - routes a deposit into a healthier asset
//
// consulted when the depositing vault's price band is SwapOnly; the
// concrete integration is selected by configuration
type SwapRouter interface {
	Route(fromVault string, assets uint64) (toVault string, realized uint64, err error)
}

// globals
var globalData struct {
	sync.RWMutex
	log    *logger.L
	vaults map[string]*Vault
	router SwapRouter
	limits priceband.Limits

	// set once during initialise
	initialised bool
}

// serialises deposit and redemption settlement so pool totals are
// never read mid-update
var settleLock sync.Mutex

// Initialise - reload the vault registry from storage
//
// router may be nil, in which case SwapOnly deposits are refused with
// SwapRequired rather than routed
func Initialise(router SwapRouter, limits priceband.Limits) error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("vault")
	if nil == globalData.log {
		return fault.InvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	globalData.vaults = make(map[string]*Vault)
	globalData.router = router
	globalData.limits = limits

	var unpackError error
	storage.Pool.Vaults.Range(func(key []byte, value []byte) bool {
		v, err := unpackVault(string(key), value)
		if nil != err {
			globalData.log.Criticalf("corrupt vault record: %q  error: %s", key, err)
			unpackError = err
			return false
		}
		globalData.vaults[v.Id] = v
		return true
	})
	if nil != unpackError {
		return unpackError
	}
	globalData.log.Infof("loaded %d vaults", len(globalData.vaults))

	globalData.initialised = true
	return nil
}

// Finalise - shutdown the registry
func Finalise() error {

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.Lock()
	globalData.vaults = nil
	globalData.router = nil
	globalData.initialised = false
	globalData.Unlock()

	return nil
}

// sum of active caps, caller holds lock
func totalCap(excluding string) uint64 {
	total := uint64(0)
	for id, v := range globalData.vaults {
		if id == excluding || v.Deregistered {
			continue
		}
		total += v.Cap
	}
	return total
}

// Register - add a new vault
//
// the identifier of a deregistered vault is retired and can never be
// reused, so its net-minted history stays unambiguous
func Register(id string, asset string, capBps uint64, precision uint64, minimumDeposit uint64) error {

	if 0 == len(id) {
		return fault.InvalidVaultId
	}
	if 0 == len(asset) {
		return fault.MissingParameters
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	if _, ok := globalData.vaults[id]; ok {
		return fault.VaultAlreadyRegistered
	}

	if totalCap("")+capBps > constants.MaximumTotalCap {
		return fault.CapTotalTooLarge
	}

	parameters, err := conversion.NewParameters(precision)
	if nil != err {
		return err
	}

	v := &Vault{
		Id:             id,
		Asset:          asset,
		Cap:            capBps,
		Precision:      precision,
		MinimumDeposit: minimumDeposit,
		parameters:     parameters,
	}
	globalData.vaults[id] = v
	storage.Pool.Vaults.Put([]byte(id), packVault(v))

	globalData.log.Infof("registered: %s  asset: %s  cap: %d bps  precision: %d", id, asset, capBps, precision)
	messagebus.Bus.Events.Send("vault-registered", []byte(id))
	return nil
}

// SetCap - change a vault's cap
//
// the new cap applies to future mints only, an over-cap vault can
// still burn its way back under
func SetCap(id string, capBps uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	v, ok := globalData.vaults[id]
	if !ok || v.Deregistered {
		return fault.VaultNotFound
	}

	if totalCap(id)+capBps > constants.MaximumTotalCap {
		return fault.CapTotalTooLarge
	}

	v.Cap = capBps
	storage.Pool.Vaults.Put([]byte(id), packVault(v))

	globalData.log.Infof("cap update: %s  cap: %d bps", id, capBps)
	messagebus.Bus.Events.Send("cap-updated", []byte(id))
	return nil
}

// Suspend - set or clear a vault's suspension flag
func Suspend(id string, suspended bool) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	v, ok := globalData.vaults[id]
	if !ok || v.Deregistered {
		return fault.VaultNotFound
	}

	v.Suspended = suspended
	storage.Pool.Vaults.Put([]byte(id), packVault(v))

	globalData.log.Infof("suspend: %s  flag: %t", id, suspended)
	return nil
}

// Deregister - retire a vault
//
// the record is kept, only marked, so the audit trail of its
// net-minted history survives
func Deregister(id string) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	v, ok := globalData.vaults[id]
	if !ok || v.Deregistered {
		return fault.VaultNotFound
	}

	v.Deregistered = true
	storage.Pool.Vaults.Put([]byte(id), packVault(v))

	globalData.log.Infof("deregistered: %s", id)
	return nil
}

// IsAuthorised - the capability check for mint and burn
//
// needs a registered, unsuspended vault whose collateral price is
// outside the Halted band; a halt refuses exactly like a system pause
func IsAuthorised(id string) error {
	globalData.RLock()
	v, ok := globalData.vaults[id]
	limits := globalData.limits
	globalData.RUnlock()

	if !ok || v.Deregistered {
		return fault.Unauthorized
	}
	if v.Suspended {
		return fault.VaultSuspended
	}

	snapshot, err := oracle.Fetch(v.Asset)
	if nil != err {
		return err
	}
	band := priceband.ClassifyWithLimits(snapshot.Price, snapshot.Secondary, snapshot.Age(time.Now()), limits)
	if priceband.Halted == band {
		return fault.SystemPaused
	}
	return nil
}

// Cap - a vault's cap in basis points
func Cap(id string) (uint64, error) {
	globalData.RLock()
	defer globalData.RUnlock()

	v, ok := globalData.vaults[id]
	if !ok {
		return 0, fault.VaultNotFound
	}
	return v.Cap, nil
}

// Get - a copy of one vault record
func Get(id string) (Vault, error) {
	globalData.RLock()
	defer globalData.RUnlock()

	v, ok := globalData.vaults[id]
	if !ok {
		return Vault{}, fault.VaultNotFound
	}
	return *v, nil
}

// List - copies of all vault records, retired ones included
func List() []Vault {
	globalData.RLock()
	defer globalData.RUnlock()

	list := make([]Vault, 0, len(globalData.vaults))
	for _, v := range globalData.vaults {
		list = append(list, *v)
	}
	return list
}

// Authority - adapter implementing the token capability interface
type Authority struct{}

// IsAuthorised - see the package function
func (Authority) IsAuthorised(id string) error {
	return IsAuthorised(id)
}

// Cap - see the package function
func (Authority) Cap(id string) (uint64, error) {
	return Cap(id)
}
