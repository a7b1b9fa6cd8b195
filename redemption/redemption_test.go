// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package redemption_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/chain"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/oracle"
	"github.com/openpeg/pegd/priceband"
	"github.com/openpeg/pegd/redemption"
	"github.com/openpeg/pegd/storage"
	"github.com/openpeg/pegd/token"
	"github.com/openpeg/pegd/vault"
)

// test database file
const (
	databaseFileName = "test.leveldb"
	testingDirName   = "testing"
)

var prices *oracle.StaticSource

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

	prices = oracle.NewStaticSource()
	prices.SetPrice("usdc", 1000000, 1000000, time.Now())
	err = oracle.Initialise(prices, time.Millisecond)
	if nil != err {
		t.Fatalf("oracle initialise error: %s", err)
	}

	err = vault.Initialise(nil, priceband.DefaultLimits)
	if nil != err {
		t.Fatalf("vault initialise error: %s", err)
	}

	err = token.Initialise(vault.Authority{})
	if nil != err {
		t.Fatalf("token initialise error: %s", err)
	}

	err = redemption.Initialise()
	if nil != err {
		t.Fatalf("redemption initialise error: %s", err)
	}

	err = vault.Register("usdc-main", "usdc", 10000, 6, 1)
	if nil != err {
		t.Fatalf("register error: %s", err)
	}
}

func teardown(t *testing.T) {
	redemption.Finalise()
	token.Finalise()
	vault.Finalise()
	oracle.Finalise()
	ledger.Finalise()
	storage.Finalise()
	mode.Finalise()
	logger.Finalise()
	removeFiles()
}

func setPrice(primary uint64, secondary uint64) {
	prices.SetPrice("usdc", primary, secondary, time.Now())
	oracle.Flush()
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

func deposit(t *testing.T, who *account.Account, assets uint64) uint64 {
	shares, err := vault.Deposit("usdc-main", assets, who)
	if nil != err {
		t.Fatalf("deposit error: %s", err)
	}
	return shares
}

func TestRequestAndCancel(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)
	shares := deposit(t, alice, 1000000)

	id, err := redemption.RequestRedeem(alice, shares/2)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	if 0 == id {
		t.Fatal("request id is zero")
	}
	if shares/2 != token.EscrowOf(alice) {
		t.Errorf("escrow: actual: %d  expected: %d", token.EscrowOf(alice), shares/2)
	}
	if 1 != redemption.QueueLength() {
		t.Errorf("queue length: actual: %d  expected: 1", redemption.QueueLength())
	}

	bob := makeAccount(0xb2)
	err = redemption.CancelRedeem(id, bob)
	if fault.NotOwner != err {
		t.Errorf("cancel error: actual: %v  expected: %v", err, fault.NotOwner)
	}

	err = redemption.CancelRedeem(id, alice)
	if nil != err {
		t.Fatalf("cancel error: %s", err)
	}
	if 0 != token.EscrowOf(alice) {
		t.Errorf("escrow: actual: %d  expected: 0", token.EscrowOf(alice))
	}
	if 0 != redemption.QueueLength() {
		t.Errorf("queue length: actual: %d  expected: 0", redemption.QueueLength())
	}

	err = redemption.CancelRedeem(id, alice)
	if fault.NotPending != err {
		t.Errorf("cancel error: actual: %v  expected: %v", err, fault.NotPending)
	}
}

func TestRequestValidation(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)
	deposit(t, alice, 1000000)

	_, err := redemption.RequestRedeem(alice, 0)
	if fault.ZeroAmount != err {
		t.Errorf("request error: actual: %v  expected: %v", err, fault.ZeroAmount)
	}

	_, err = redemption.RequestRedeem(&account.Account{}, 100)
	if fault.ZeroAddress != err {
		t.Errorf("request error: actual: %v  expected: %v", err, fault.ZeroAddress)
	}

	// more shares than the owner holds
	_, err = redemption.RequestRedeem(alice, 2000000000000000000)
	if fault.InsufficientBalance != err {
		t.Errorf("request error: actual: %v  expected: %v", err, fault.InsufficientBalance)
	}
}

// three requests queued in order: a batch of two settles the first
// two only, a second batch settles the third
func TestProcessBatchFIFO(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)
	deposit(t, alice, 3000000)

	unit := uint64(1000000000000000000)
	r1, err := redemption.RequestRedeem(alice, unit)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	r2, err := redemption.RequestRedeem(alice, unit)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	r3, err := redemption.RequestRedeem(alice, unit)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}

	processed, err := redemption.ProcessBatch(2)
	if nil != err {
		t.Fatalf("process error: %s", err)
	}
	if 2 != processed {
		t.Fatalf("processed: actual: %d  expected: 2", processed)
	}

	status := func(id uint64) redemption.State {
		request, err := redemption.GetRequest(id)
		if nil != err {
			t.Fatalf("get request error: %s", err)
		}
		return request.State
	}
	if redemption.StateProcessed != status(r1) {
		t.Errorf("r1 state: actual: %d  expected processed", status(r1))
	}
	if redemption.StateProcessed != status(r2) {
		t.Errorf("r2 state: actual: %d  expected processed", status(r2))
	}
	if redemption.StatePending != status(r3) {
		t.Errorf("r3 state: actual: %d  expected pending", status(r3))
	}

	processed, err = redemption.ProcessBatch(2)
	if nil != err {
		t.Fatalf("process error: %s", err)
	}
	if 1 != processed {
		t.Fatalf("processed: actual: %d  expected: 1", processed)
	}
	if redemption.StateProcessed != status(r3) {
		t.Errorf("r3 state: actual: %d  expected processed", status(r3))
	}
}

// a halt mid-queue stops the batch, it does not skip ahead
func TestProcessBatchStopsAtHalt(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)
	deposit(t, alice, 2000000)

	unit := uint64(1000000000000000000)
	_, err := redemption.RequestRedeem(alice, unit)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	r2, err := redemption.RequestRedeem(alice, unit)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}

	setPrice(980000, 980000)

	processed, err := redemption.ProcessBatch(10)
	if fault.PriceBelowThreshold != err {
		t.Fatalf("process error: actual: %v  expected: %v", err, fault.PriceBelowThreshold)
	}
	if 0 != processed {
		t.Fatalf("processed: actual: %d  expected: 0", processed)
	}
	if 2 != redemption.QueueLength() {
		t.Errorf("queue length: actual: %d  expected: 2", redemption.QueueLength())
	}

	// price recovers, the queue drains in order
	setPrice(1000000, 1000000)
	processed, err = redemption.ProcessBatch(10)
	if nil != err {
		t.Fatalf("process error: %s", err)
	}
	if 2 != processed {
		t.Fatalf("processed: actual: %d  expected: 2", processed)
	}

	request, err := redemption.GetRequest(r2)
	if nil != err {
		t.Fatalf("get request error: %s", err)
	}
	if redemption.StateProcessed != request.State {
		t.Errorf("r2 state: actual: %d  expected processed", request.State)
	}
}

func TestClaimLifecycle(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := makeAccount(0xa1)
	bob := makeAccount(0xb2)
	shares := deposit(t, alice, 1000000)

	id, err := redemption.RequestRedeem(alice, shares)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}

	// claiming before processing
	_, err = redemption.ClaimRedeem(id, alice)
	if fault.NotProcessed != err {
		t.Errorf("claim error: actual: %v  expected: %v", err, fault.NotProcessed)
	}

	processed, err := redemption.ProcessBatch(1)
	if nil != err || 1 != processed {
		t.Fatalf("process: %d error: %v", processed, err)
	}

	// shares are gone from escrow and from issuance
	if 0 != token.EscrowOf(alice) {
		t.Errorf("escrow: actual: %d  expected: 0", token.EscrowOf(alice))
	}
	if 0 != ledger.GlobalIssued() {
		t.Errorf("global issued: actual: %d  expected: 0", ledger.GlobalIssued())
	}

	_, err = redemption.ClaimRedeem(id, bob)
	if fault.NotOwner != err {
		t.Errorf("claim error: actual: %v  expected: %v", err, fault.NotOwner)
	}

	// a pause blocks new work but not the claim of reserved assets
	mode.Set(mode.Paused)
	payouts, err := redemption.ClaimRedeem(id, alice)
	if nil != err {
		t.Fatalf("claim error: %s", err)
	}
	mode.Set(mode.Normal)

	if 1 != len(payouts) {
		t.Fatalf("payouts: actual: %d  expected: 1", len(payouts))
	}
	if "usdc-main" != payouts[0].VaultId {
		t.Errorf("payout vault: actual: %q  expected: %q", payouts[0].VaultId, "usdc-main")
	}
	if 0 == payouts[0].Assets {
		t.Error("payout assets is zero")
	}

	_, err = redemption.ClaimRedeem(id, alice)
	if fault.AlreadyClaimed != err {
		t.Errorf("claim error: actual: %v  expected: %v", err, fault.AlreadyClaimed)
	}

	_, err = redemption.ClaimRedeem(id+100, alice)
	if fault.RequestNotFound != err {
		t.Errorf("claim error: actual: %v  expected: %v", err, fault.RequestNotFound)
	}
}

// requests settle pro-rata across every vault with issuance
func TestProportionalSettlement(t *testing.T) {
	setup(t)
	defer teardown(t)

	err := vault.Register("usdt-main", "usdt", 10000, 6, 1)
	if nil != err {
		t.Fatalf("register error: %s", err)
	}
	prices.SetPrice("usdt", 1000000, 1000000, time.Now())
	oracle.Flush()

	alice := makeAccount(0xa1)
	deposit(t, alice, 3000000)
	_, err = vault.Deposit("usdt-main", 1000000, alice)
	if nil != err {
		t.Fatalf("deposit error: %s", err)
	}

	id, err := redemption.RequestRedeem(alice, 2000000000000000000)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	processed, err := redemption.ProcessBatch(1)
	if nil != err || 1 != processed {
		t.Fatalf("process: %d error: %v", processed, err)
	}

	payouts, err := redemption.ClaimRedeem(id, alice)
	if nil != err {
		t.Fatalf("claim error: %s", err)
	}
	if 2 != len(payouts) {
		t.Fatalf("payouts: actual: %d  expected: 2", len(payouts))
	}

	total := map[string]uint64{}
	for _, payout := range payouts {
		total[payout.VaultId] = payout.Assets
	}
	// 3:1 issuance split, so a 2 unit redemption draws 1.5:0.5
	if total["usdc-main"] <= total["usdt-main"] {
		t.Errorf("split: usdc: %d  usdt: %d", total["usdc-main"], total["usdt-main"])
	}
	if 0 == total["usdt-main"] {
		t.Error("usdt payout is zero")
	}
}

// the flooring remainder can exceed the largest vault's headroom when
// the other holdings are dust, the spill must land on whichever vault
// still has net-minted left instead of failing mid-settlement
func TestSettlementRemainderSpill(t *testing.T) {
	setup(t)
	defer teardown(t)

	for _, name := range []string{"dai", "frax"} {
		err := vault.Register(name+"-main", name, 10000, 18, 1)
		if nil != err {
			t.Fatalf("register error: %s", err)
		}
		prices.SetPrice(name, 1000000, 1000000, time.Now())
	}
	oracle.Flush()

	unit := uint64(1000000000000000000)

	alice := makeAccount(0xa1)
	deposit(t, alice, 1000000)
	for _, id := range []string{"dai-main", "frax-main"} {
		_, err := vault.Deposit(id, 3, alice)
		if nil != err {
			t.Fatalf("deposit error: %s", err)
		}
	}
	if unit+6 != ledger.GlobalIssued() {
		t.Fatalf("global issued: actual: %d  expected: %d", ledger.GlobalIssued(), unit+6)
	}

	// pro-rata floors give the big vault unit-1 and the dust vaults 2
	// each, leaving 2 over but only 1 of headroom on the big vault
	id, err := redemption.RequestRedeem(alice, unit+5)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	processed, err := redemption.ProcessBatch(1)
	if nil != err {
		t.Fatalf("process error: %s", err)
	}
	if 1 != processed {
		t.Fatalf("processed: actual: %d  expected: 1", processed)
	}

	if 0 != token.EscrowOf(alice) {
		t.Errorf("escrow: actual: %d  expected: 0", token.EscrowOf(alice))
	}
	if 1 != ledger.GlobalIssued() {
		t.Errorf("global issued: actual: %d  expected: 1", ledger.GlobalIssued())
	}
	if err := ledger.CheckConsistency(); nil != err {
		t.Errorf("consistency error: %s", err)
	}

	payouts, err := redemption.ClaimRedeem(id, alice)
	if nil != err {
		t.Fatalf("claim error: %s", err)
	}
	if 3 != len(payouts) {
		t.Fatalf("payouts: actual: %d  expected: 3", len(payouts))
	}
	drawn := uint64(0)
	for _, payout := range payouts {
		if "usdc-main" == payout.VaultId {
			continue
		}
		drawn += payout.Assets
	}
	// the dust vaults together cover the 4 floored units plus the
	// spill the big vault could not absorb
	if 5 != drawn {
		t.Errorf("dust draw: actual: %d  expected: 5", drawn)
	}
}
