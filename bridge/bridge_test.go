// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridge_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/bridge"
	"github.com/openpeg/pegd/chain"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/storage"
	"github.com/openpeg/pegd/token"
)

// test database file
const (
	databaseFileName = "test.leveldb"
	testingDirName   = "testing"
)

type openAuthority struct{}

func (openAuthority) IsAuthorised(vaultId string) error { return nil }
func (openAuthority) Cap(vaultId string) (uint64, error) {
	return 10000, nil
}

func removeFiles() {
	os.RemoveAll(databaseFileName)
	os.RemoveAll(testingDirName)
}

func setup(t *testing.T) {
	removeFiles()

	_ = os.Mkdir(testingDirName, 0700)
	logging := logger.Configuration{
		Directory: testingDirName,
		File:      fmt.Sprintf("%s.log", "testing"),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	err := mode.Initialise(chain.Testing)
	if nil != err {
		t.Fatalf("mode initialise error: %s", err)
	}
	mode.Set(mode.Normal)

	err = storage.Initialise(databaseFileName)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	err = ledger.Initialise()
	if nil != err {
		t.Fatalf("ledger initialise error: %s", err)
	}

	err = token.Initialise(openAuthority{})
	if nil != err {
		t.Fatalf("token initialise error: %s", err)
	}

	err = bridge.Initialise()
	if nil != err {
		t.Fatalf("bridge initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	bridge.Finalise()
	token.Finalise()
	ledger.Finalise()
	storage.Finalise()
	mode.Finalise()
	logger.Finalise()
	removeFiles()
}

func makeAccount(seed byte) *account.Account {
	publicKey := make([]byte, 32)
	for i := 0; i < len(publicKey); i += 1 {
		publicKey[i] = seed
	}
	return &account.Account{
		Test:      true,
		PublicKey: publicKey,
	}
}

// moving 500 units off-ledger and back: local circulating supply
// follows the tokens, global issued supply never moves
func TestTransferNeutrality(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)

	err := token.Mint("usdc-main", alice, 1000)
	if nil != err {
		t.Fatalf("mint error: %s", err)
	}

	err = bridge.TransferOut(alice, chain.Local, 500)
	if nil != err {
		t.Fatalf("transfer out error: %s", err)
	}
	if 500 != token.LocalSupply() {
		t.Errorf("local supply: actual: %d  expected: 500", token.LocalSupply())
	}
	if 500 != token.BalanceOf(alice) {
		t.Errorf("balance: actual: %d  expected: 500", token.BalanceOf(alice))
	}
	if 1000 != ledger.GlobalIssued() {
		t.Errorf("global issued: actual: %d  expected: 1000", ledger.GlobalIssued())
	}

	err = bridge.TransferIn(alice, chain.Local, 500)
	if nil != err {
		t.Fatalf("transfer in error: %s", err)
	}
	if 1000 != token.LocalSupply() {
		t.Errorf("local supply: actual: %d  expected: 1000", token.LocalSupply())
	}
	if 1000 != ledger.GlobalIssued() {
		t.Errorf("global issued: actual: %d  expected: 1000", ledger.GlobalIssued())
	}
}

func TestTransferValidation(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)

	err := token.Mint("usdc-main", alice, 1000)
	if nil != err {
		t.Fatalf("mint error: %s", err)
	}

	err = bridge.TransferOut(alice, "unknown-ledger", 100)
	if fault.InvalidLedgerName != err {
		t.Errorf("transfer error: actual: %v  expected: %v", err, fault.InvalidLedgerName)
	}

	// the current ledger is not a valid destination
	err = bridge.TransferOut(alice, chain.Testing, 100)
	if fault.InvalidLedgerName != err {
		t.Errorf("transfer error: actual: %v  expected: %v", err, fault.InvalidLedgerName)
	}

	err = bridge.TransferOut(alice, chain.Local, 1001)
	if fault.InsufficientBalance != err {
		t.Errorf("transfer error: actual: %v  expected: %v", err, fault.InsufficientBalance)
	}

	err = bridge.TransferOut(alice, chain.Local, 0)
	if fault.ZeroAmount != err {
		t.Errorf("transfer error: actual: %v  expected: %v", err, fault.ZeroAmount)
	}

	mode.Set(mode.Paused)
	err = bridge.TransferOut(alice, chain.Local, 100)
	if fault.SystemPaused != err {
		t.Errorf("transfer error: actual: %v  expected: %v", err, fault.SystemPaused)
	}
	mode.Set(mode.Normal)
}
