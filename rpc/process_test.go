// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ed25519"

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

const queueDatabaseName = "test.leveldb"

var queuePrices *oracle.StaticSource

// bring up the whole accounting stack behind the service
func queueSetup(t *testing.T) {
	os.RemoveAll(queueDatabaseName)
	setup(t)
	mode.Set(mode.Normal)

	err := storage.Initialise(queueDatabaseName)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
	err = ledger.Initialise()
	if nil != err {
		t.Fatalf("ledger initialise error: %s", err)
	}

	queuePrices = oracle.NewStaticSource()
	queuePrices.SetPrice("usdc", 1000000, 1000000, time.Now())
	err = oracle.Initialise(queuePrices, time.Millisecond)
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

func queueTeardown(t *testing.T) {
	redemption.Finalise()
	token.Finalise()
	vault.Finalise()
	oracle.Finalise()
	ledger.Finalise()
	storage.Finalise()
	teardown(t)
	os.RemoveAll(queueDatabaseName)
}

// a batch ended by a price halt is still a successful call: the reply
// carries the count processed so far and the stop reason instead of
// the error discarding both
func TestProcessStopsAtHalt(t *testing.T) {
	queueSetup(t)
	defer queueTeardown(t)

	admin, adminKey := makeTestAccount(t, true)
	list, err := NewAdministratorList([]string{admin.String()})
	assert.NoError(t, err, "administrator list must parse")

	r := &Redemption{
		log:            logger.New("test-redemption"),
		administrators: list,
		limiter:        nil,
	}

	alice, _ := makeTestAccount(t, true)
	_, err = vault.Deposit("usdc-main", 1000000, alice)
	assert.NoError(t, err, "deposit must succeed at parity")
	_, err = redemption.RequestRedeem(alice, 500000000000000000)
	assert.NoError(t, err, "request must queue")

	arguments := ProcessArguments{
		Count:         5,
		Administrator: admin,
	}
	message := signatureMessage("redemption.process", uint64Bytes(uint64(arguments.Count)))
	arguments.Signature = ed25519.Sign(adminKey, message)

	// depeg the collateral, the queue must stand still
	queuePrices.SetPrice("usdc", 980000, 980000, time.Now())
	oracle.Flush()

	var reply ProcessReply
	err = r.Process(&arguments, &reply)
	assert.NoError(t, err, "a halted queue is not a call failure")
	assert.Equal(t, 0, reply.Processed, "nothing settles while halted")
	assert.Equal(t, fault.PriceBelowThreshold.Error(), reply.Stopped, "the stop reason must be reported")

	// an operator pause is a real refusal, not a stop reason
	mode.Set(mode.Paused)
	reply = ProcessReply{}
	err = r.Process(&arguments, &reply)
	assert.Equal(t, fault.SystemPaused, err, "paused system must refuse")
	mode.Set(mode.Normal)

	// parity restores processing and clears the stop reason
	queuePrices.SetPrice("usdc", 1000000, 1000000, time.Now())
	oracle.Flush()

	reply = ProcessReply{}
	err = r.Process(&arguments, &reply)
	assert.NoError(t, err, "processing must resume")
	assert.Equal(t, 1, reply.Processed, "the pending request must settle")
	assert.Equal(t, "", reply.Stopped, "no stop reason on a drained queue")
}
