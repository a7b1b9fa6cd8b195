// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridge - cross-ledger share transfers
//
// a transfer out burns nothing and mints nothing: it debits the
// holder on this ledger and the mirrored credit settles later on the
// destination ledger; the global issued supply is untouched by
// construction, only local circulating supplies move
package bridge

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/chain"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/messagebus"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/token"
)

// globals
var globalData struct {
	sync.Mutex
	log *logger.L

	// set once during initialise
	initialised bool
}

// Initialise - start the bridge surface
func Initialise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("bridge")
	if nil == globalData.log {
		return fault.InvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	globalData.initialised = true
	return nil
}

// Finalise - shutdown the bridge surface
func Finalise() error {

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.Lock()
	globalData.initialised = false
	globalData.Unlock()

	return nil
}

func validate(who *account.Account, otherLedger string, amount uint64) error {
	if !mode.Is(mode.Normal) {
		return fault.SystemPaused
	}
	if nil == who || who.IsZero() {
		return fault.ZeroAddress
	}
	if 0 == amount {
		return fault.ZeroAmount
	}
	if !chain.Valid(otherLedger) || otherLedger == mode.LedgerName() {
		return fault.InvalidLedgerName
	}
	return nil
}

// TransferOut - move shares from this ledger to another
//
// once committed the transfer cannot be rolled back; the matching
// credit on the destination ledger settles asynchronously
func TransferOut(from *account.Account, toLedger string, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	err := validate(from, toLedger, amount)
	if nil != err {
		return err
	}

	err = token.BridgeDebit(from, amount)
	if nil != err {
		return err
	}
	issued := ledger.RecordBridgeDebit(toLedger, amount)

	globalData.log.Infof("transfer out: %s → %s  amount: %d  global issued: %d", from, toLedger, amount, issued)
	messagebus.Bus.Events.Send("bridge-out", from.Bytes(), []byte(toLedger), uint64Bytes(amount))
	return nil
}

// TransferIn - settle an inbound transfer from another ledger
func TransferIn(to *account.Account, fromLedger string, amount uint64) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	err := validate(to, fromLedger, amount)
	if nil != err {
		return err
	}

	err = token.BridgeCredit(to, amount)
	if nil != err {
		return err
	}
	issued := ledger.RecordBridgeCredit(fromLedger, amount)

	globalData.log.Infof("transfer in: %s → %s  amount: %d  global issued: %d", fromLedger, to, amount, issued)
	messagebus.Bus.Events.Send("bridge-in", to.Bytes(), []byte(fromLedger), uint64Bytes(amount))
	return nil
}

func uint64Bytes(n uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}
