// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package token - the share token surface
//
// holds per-account balances and escrow on the local ledger, the local
// circulating supply, and the gated mint/burn entry points; issuance
// accounting itself lives in the ledger package
package token

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/messagebus"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/storage"
)

// Authority - the capability check consulted before any mint or burn
//
// implemented by the vault registry; a fake suffices for testing
type Authority interface {
	// nil when the vault exists, is not suspended and its
	// collateral price band is not Halted
	IsAuthorised(vaultId string) error

	// the vault's cap in basis points
	Cap(vaultId string) (uint64, error)
}

// globals
var globalData struct {
	sync.RWMutex
	log       *logger.L
	authority Authority

	// set once during initialise
	initialised bool
}

// Initialise - attach the vault capability check
func Initialise(authority Authority) error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("token")
	if nil == globalData.log {
		return fault.InvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	if nil == authority {
		return fault.MissingParameters
	}
	globalData.authority = authority

	globalData.initialised = true
	return nil
}

// Finalise - shutdown the token surface
func Finalise() error {

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.Lock()
	globalData.authority = nil
	globalData.initialised = false
	globalData.Unlock()

	return nil
}

// gate common to mint and burn
func authorise(vaultId string, who *account.Account, amount uint64) error {
	if !mode.Is(mode.Normal) {
		return fault.SystemPaused
	}
	if nil == who || who.IsZero() {
		return fault.ZeroAddress
	}
	if 0 == amount {
		return fault.ZeroAmount
	}
	return globalData.authority.IsAuthorised(vaultId)
}

// Mint - create shares for a recipient
//
// the full gate sequence runs before any state changes, so a failure
// leaves balances, supply and the issuance ledger untouched
func Mint(vaultId string, to *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	err := authorise(vaultId, to, amount)
	if nil != err {
		return err
	}

	capBps, err := globalData.authority.Cap(vaultId)
	if nil != err {
		return err
	}

	_, err = ledger.RecordMint(vaultId, amount, capBps)
	if nil != err {
		return err
	}

	addBalance(to, amount)
	addLocalSupply(amount)

	globalData.log.Infof("mint: vault: %s  to: %s  amount: %d", vaultId, to, amount)
	messagebus.Bus.Events.Send("minted", []byte(vaultId), to.Bytes(), uint64Bytes(amount))
	return nil
}

// Burn - destroy shares held by an account
func Burn(vaultId string, from *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	err := authorise(vaultId, from, amount)
	if nil != err {
		return err
	}

	balance := getBalance(from)
	if amount > balance {
		return fault.InsufficientBalance
	}

	_, err = ledger.RecordBurn(vaultId, amount)
	if nil != err {
		return err
	}

	setBalance(from, balance-amount)
	subLocalSupply(amount)

	globalData.log.Infof("burn: vault: %s  from: %s  amount: %d", vaultId, from, amount)
	messagebus.Bus.Events.Send("burned", []byte(vaultId), from.Bytes(), uint64Bytes(amount))
	return nil
}

// BurnEscrow - destroy shares previously locked in escrow
//
// used by redemption processing; the shares left the owner's balance
// when the request was created
func BurnEscrow(vaultId string, owner *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if 0 == amount {
		return fault.ZeroAmount
	}

	escrowed := getEscrow(owner)
	if amount > escrowed {
		return fault.InsufficientEscrow
	}

	_, err := ledger.RecordBurn(vaultId, amount)
	if nil != err {
		return err
	}

	setEscrow(owner, escrowed-amount)
	subLocalSupply(amount)

	globalData.log.Infof("burn escrow: vault: %s  owner: %s  amount: %d", vaultId, owner, amount)
	return nil
}

// EscrowLock - move shares from an account's balance into escrow
func EscrowLock(owner *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if nil == owner || owner.IsZero() {
		return fault.ZeroAddress
	}
	if 0 == amount {
		return fault.ZeroAmount
	}

	balance := getBalance(owner)
	if amount > balance {
		return fault.InsufficientBalance
	}

	setBalance(owner, balance-amount)
	setEscrow(owner, getEscrow(owner)+amount)
	return nil
}

// EscrowRelease - return escrowed shares to the owner's balance
func EscrowRelease(owner *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if 0 == amount {
		return fault.ZeroAmount
	}

	escrowed := getEscrow(owner)
	if amount > escrowed {
		return fault.InsufficientEscrow
	}

	setEscrow(owner, escrowed-amount)
	addBalance(owner, amount)
	return nil
}

// BridgeDebit - remove shares from the local ledger for an outbound
// cross-ledger transfer
func BridgeDebit(from *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if nil == from || from.IsZero() {
		return fault.ZeroAddress
	}
	if 0 == amount {
		return fault.ZeroAmount
	}

	balance := getBalance(from)
	if amount > balance {
		return fault.InsufficientBalance
	}

	setBalance(from, balance-amount)
	subLocalSupply(amount)
	return nil
}

// BridgeCredit - add shares to the local ledger for an inbound
// cross-ledger transfer
func BridgeCredit(to *account.Account, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if nil == to || to.IsZero() {
		return fault.ZeroAddress
	}
	if 0 == amount {
		return fault.ZeroAmount
	}

	// local circulating supply can never exceed global issuance
	if localSupply()+amount > ledger.GlobalIssued() {
		return fault.SupplyMismatch
	}

	addBalance(to, amount)
	addLocalSupply(amount)
	return nil
}

// BalanceOf - current spendable balance of an account
func BalanceOf(who *account.Account) uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	return getBalance(who)
}

// EscrowOf - currently escrowed amount of an account
func EscrowOf(who *account.Account) uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	return getEscrow(who)
}

// LocalSupply - circulating supply on this ledger
func LocalSupply() uint64 {
	globalData.RLock()
	defer globalData.RUnlock()
	return localSupply()
}

// storage helpers, callers hold the lock

func getBalance(who *account.Account) uint64 {
	n, _ := storage.Pool.Balances.GetN(who.Bytes())
	return n
}

func setBalance(who *account.Account, n uint64) {
	storage.Pool.Balances.PutN(who.Bytes(), n)
}

func addBalance(who *account.Account, amount uint64) {
	setBalance(who, getBalance(who)+amount)
}

func getEscrow(who *account.Account) uint64 {
	n, _ := storage.Pool.Escrow.GetN(who.Bytes())
	return n
}

func setEscrow(who *account.Account, n uint64) {
	storage.Pool.Escrow.PutN(who.Bytes(), n)
}

func localSupply() uint64 {
	n, _ := storage.Pool.LocalSupply.GetN([]byte(mode.LedgerName()))
	return n
}

func addLocalSupply(amount uint64) {
	storage.Pool.LocalSupply.PutN([]byte(mode.LedgerName()), localSupply()+amount)
}

func subLocalSupply(amount uint64) {
	n := localSupply()
	if amount > n {
		logger.Panicf("token: local supply underflow: have: %d  sub: %d", n, amount)
	}
	storage.Pool.LocalSupply.PutN([]byte(mode.LedgerName()), n-amount)
}

func uint64Bytes(n uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}
