// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - global issuance bookkeeping
//
// tracks the net-minted amount of every vault and the single global
// issued supply figure, which is always the sum of the per-vault
// values; cross-ledger transfers never change either number
package ledger

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/messagebus"
	"github.com/openpeg/pegd/storage"
)

// key for the global issued supply record in the supply pool
var issuedKey = []byte("issued")

// globals
var globalData struct {
	sync.RWMutex
	log          *logger.L
	netMinted    map[string]uint64
	globalIssued uint64

	// set once during initialise
	initialised bool
}

// Initialise - reload issuance state from storage
func Initialise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("ledger")
	if nil == globalData.log {
		return fault.InvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	globalData.netMinted = make(map[string]uint64)

	total := uint64(0)
	storage.Pool.NetMinted.Range(func(key []byte, value []byte) bool {
		if len(value) < 8 {
			logger.Panicf("ledger: truncated net-minted record for: %q", key)
		}
		n := binary.BigEndian.Uint64(value[:8])
		globalData.netMinted[string(key)] = n
		total += n
		return true
	})

	issued, found := storage.Pool.Supply.GetN(issuedKey)
	if !found {
		issued = 0
	}
	if total != issued {
		globalData.log.Criticalf("supply mismatch: stored: %d  sum: %d", issued, total)
		return fault.SupplyMismatch
	}
	globalData.globalIssued = issued
	globalData.log.Infof("global issued supply: %d", issued)

	globalData.initialised = true
	return nil
}

// Finalise - shutdown the ledger
func Finalise() error {

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.Lock()
	globalData.netMinted = nil
	globalData.globalIssued = 0
	globalData.initialised = false
	globalData.Unlock()

	return nil
}

// RecordMint - account for a vault minting shares
//
// the cap check denominates against the post-mint global supply, so a
// vault's headroom grows as total worldwide issuance grows; only
// minting is capped, never burning
func RecordMint(vaultId string, amount uint64, capBps uint64) (uint64, error) {

	if 0 == amount {
		return 0, fault.ZeroAmount
	}
	if 0 == len(vaultId) {
		return 0, fault.InvalidVaultId
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return 0, fault.NotInitialised
	}

	minted := globalData.netMinted[vaultId]
	if minted+amount < minted {
		return 0, fault.PrecisionOverflow
	}
	if globalData.globalIssued+amount < globalData.globalIssued {
		return 0, fault.PrecisionOverflow
	}

	// net-minted[v] + amount <= (global + amount) * cap / 10000
	newGlobal := globalData.globalIssued + amount
	limit := new(big.Int).SetUint64(newGlobal)
	limit.Mul(limit, new(big.Int).SetUint64(capBps))
	limit.Div(limit, big.NewInt(constants.CapScale))
	if new(big.Int).SetUint64(minted+amount).Cmp(limit) > 0 {
		globalData.log.Warnf("cap exceeded: vault: %s  net minted: %d  amount: %d  cap: %d bps", vaultId, minted, amount, capBps)
		return 0, fault.CapExceeded
	}

	globalData.netMinted[vaultId] = minted + amount
	globalData.globalIssued = newGlobal

	trx := storage.NewTransaction()
	trx.PutN(storage.Pool.NetMinted, []byte(vaultId), minted+amount)
	trx.PutN(storage.Pool.Supply, issuedKey, newGlobal)
	trx.Commit()

	globalData.log.Infof("mint: vault: %s  amount: %d  global issued: %d", vaultId, amount, newGlobal)
	messagebus.Bus.Events.Send("mint-recorded", []byte(vaultId), uint64Bytes(amount))

	return newGlobal, nil
}

// RecordBurn - account for a vault burning shares
func RecordBurn(vaultId string, amount uint64) (uint64, error) {

	if 0 == amount {
		return 0, fault.ZeroAmount
	}
	if 0 == len(vaultId) {
		return 0, fault.InvalidVaultId
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return 0, fault.NotInitialised
	}

	minted := globalData.netMinted[vaultId]
	if amount > minted {
		return 0, fault.InsufficientNetMinted
	}

	globalData.netMinted[vaultId] = minted - amount
	globalData.globalIssued -= amount

	trx := storage.NewTransaction()
	trx.PutN(storage.Pool.NetMinted, []byte(vaultId), minted-amount)
	trx.PutN(storage.Pool.Supply, issuedKey, globalData.globalIssued)
	trx.Commit()

	globalData.log.Infof("burn: vault: %s  amount: %d  global issued: %d", vaultId, amount, globalData.globalIssued)
	messagebus.Bus.Events.Send("burn-recorded", []byte(vaultId), uint64Bytes(amount))

	return globalData.globalIssued, nil
}

// RecordBridgeDebit - note an outbound cross-ledger transfer
//
// intentionally does not touch net-minted or the global issued supply;
// the moved tokens are still issued, just circulating elsewhere
func RecordBridgeDebit(ledgerName string, amount uint64) uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	globalData.log.Infof("bridge debit: ledger: %s  amount: %d  global issued unchanged: %d", ledgerName, amount, globalData.globalIssued)
	return globalData.globalIssued
}

// RecordBridgeCredit - note an inbound cross-ledger transfer
func RecordBridgeCredit(ledgerName string, amount uint64) uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	globalData.log.Infof("bridge credit: ledger: %s  amount: %d  global issued unchanged: %d", ledgerName, amount, globalData.globalIssued)
	return globalData.globalIssued
}

// GlobalIssued - the current global issued supply
func GlobalIssued() uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.globalIssued
}

// NetMinted - the net-minted amount of one vault
func NetMinted(vaultId string) uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.netMinted[vaultId]
}

// CheckConsistency - verify the issuance invariant
//
// the global issued supply must equal the sum of all per-vault
// net-minted values
func CheckConsistency() error {
	globalData.RLock()
	defer globalData.RUnlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	total := uint64(0)
	for _, n := range globalData.netMinted {
		total += n
	}
	if total != globalData.globalIssued {
		return fault.SupplyMismatch
	}
	return nil
}

func uint64Bytes(n uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}
