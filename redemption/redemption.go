// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package redemption - the asynchronous redemption queue
//
// a redemption request escrows the owner's shares immediately and
// joins a strictly FIFO queue; a later processing batch settles
// requests against the vaults and reserves the asset payouts, which
// the owner claims in a final step; requests are never deleted, only
// marked terminal, so the audit trail is complete
package redemption

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/messagebus"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/priceband"
	"github.com/openpeg/pegd/storage"
	"github.com/openpeg/pegd/token"
	"github.com/openpeg/pegd/vault"
)

// State - lifecycle of a request
type State byte

// lifecycle states; a request only ever moves forward
const (
	StatePending State = iota
	StateProcessed
	StateClaimed
	StateCancelled
)

// Payout - assets reserved against one vault for a processed request
type Payout struct {
	VaultId string
	Assets  uint64
}

// Request - one redemption request
type Request struct {
	Id        uint64
	Owner     *account.Account
	Shares    uint64
	CreatedAt time.Time
	State     State
	Payouts   []Payout
}

// key for the next request id in the sequence pool
var sequenceKey = []byte("redemption")

// globals
var globalData struct {
	sync.Mutex
	log *logger.L

	// set once during initialise
	initialised bool
}

// Initialise - recover queue state from storage
func Initialise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("redemption")
	if nil == globalData.log {
		return fault.InvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	globalData.log.Infof("queue length: %d", queueLength())

	globalData.initialised = true
	return nil
}

// Finalise - shutdown the queue manager
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

func idKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// count of queued request ids, caller holds lock
func queueLength() uint64 {
	n := uint64(0)
	storage.Pool.Queue.Range(func(key []byte, value []byte) bool {
		n += 1
		return true
	})
	return n
}

// RequestRedeem - queue a redemption, escrowing the shares
func RequestRedeem(owner *account.Account, shares uint64) (uint64, error) {

	if !mode.Is(mode.Normal) {
		return 0, fault.SystemPaused
	}
	if nil == owner || owner.IsZero() {
		return 0, fault.ZeroAddress
	}
	if 0 == shares {
		return 0, fault.ZeroAmount
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return 0, fault.NotInitialised
	}

	if queueLength() >= constants.MaximumQueueLength {
		return 0, fault.QueueFull
	}

	err := token.EscrowLock(owner, shares)
	if nil != err {
		return 0, err
	}

	id, _ := storage.Pool.Sequence.GetN(sequenceKey)
	id += 1

	request := &Request{
		Id:        id,
		Owner:     owner,
		Shares:    shares,
		CreatedAt: time.Now(),
		State:     StatePending,
	}
	trx := storage.NewTransaction()
	trx.PutN(storage.Pool.Sequence, sequenceKey, id)
	trx.Put(storage.Pool.Requests, idKey(id), packRequest(request))
	trx.Put(storage.Pool.Queue, idKey(id), []byte{})
	trx.Commit()

	globalData.log.Infof("requested: %d  owner: %s  shares: %d", id, owner, shares)
	messagebus.Bus.Events.Send("redemption-requested", idKey(id), owner.Bytes())
	return id, nil
}

// CancelRedeem - withdraw a pending request
//
// unescrow and dequeue happen together; a request that processing has
// already settled cannot be cancelled
func CancelRedeem(id uint64, owner *account.Account) error {

	if nil == owner || owner.IsZero() {
		return fault.ZeroAddress
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	request, err := getRequest(id)
	if nil != err {
		return err
	}
	if StatePending != request.State {
		return fault.NotPending
	}
	if !bytes.Equal(request.Owner.Bytes(), owner.Bytes()) {
		return fault.NotOwner
	}

	err = token.EscrowRelease(owner, request.Shares)
	if nil != err {
		return err
	}

	request.State = StateCancelled
	trx := storage.NewTransaction()
	trx.Put(storage.Pool.Requests, idKey(id), packRequest(request))
	trx.Delete(storage.Pool.Queue, idKey(id))
	trx.Commit()

	globalData.log.Infof("cancelled: %d", id)
	messagebus.Bus.Events.Send("redemption-cancelled", idKey(id), owner.Bytes())
	return nil
}

// ProcessBatch - settle queued requests in FIFO order
//
// every request is serviced proportionally across all vaults with
// outstanding issuance; a Halted price band on any involved vault
// stops the batch at that request rather than skipping it, preserving
// the queue order; returns the number settled and, when stopped
// early, the price precondition that stopped it
func ProcessBatch(max int) (int, error) {

	if !mode.Is(mode.Normal) {
		return 0, fault.SystemPaused
	}
	if max <= 0 || max > constants.MaximumProcessBatch {
		max = constants.MaximumProcessBatch
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return 0, fault.NotInitialised
	}

	ids := make([]uint64, 0, max)
	storage.Pool.Queue.Range(func(key []byte, value []byte) bool {
		if len(key) < 8 {
			logger.Panicf("redemption: truncated queue key: %x", key)
		}
		ids = append(ids, binary.BigEndian.Uint64(key[:8]))
		return len(ids) < max
	})

	processed := 0
	for _, id := range ids {
		request, err := getRequest(id)
		if nil != err {
			return processed, err
		}
		if StatePending != request.State {
			// a stray queue entry, drop it
			storage.Pool.Queue.Delete(idKey(id))
			continue
		}

		err = settle(request)
		if nil != err {
			if fault.IsErrPrice(err) {
				globalData.log.Warnf("batch stopped at: %d  error: %s", id, err)
				return processed, err
			}
			return processed, err
		}

		trx := storage.NewTransaction()
		trx.Put(storage.Pool.Requests, idKey(id), packRequest(request))
		trx.Delete(storage.Pool.Queue, idKey(id))
		trx.Commit()
		processed += 1

		globalData.log.Infof("processed: %d  shares: %d  payouts: %d", id, request.Shares, len(request.Payouts))
		messagebus.Bus.Events.Send("redemption-processed", idKey(id))
	}

	return processed, nil
}

// settle one request against the vaults, pro-rata by net-minted
func settle(request *Request) error {

	active := []vault.Vault{}
	totalMinted := uint64(0)
	for _, v := range vault.List() {
		minted := ledger.NetMinted(v.Id)
		if v.Deregistered || 0 == minted {
			continue
		}
		active = append(active, v)
		totalMinted += minted
	}
	if 0 == len(active) || request.Shares > totalMinted {
		return fault.InsufficientNetMinted
	}

	// all involved vaults must be in a redeemable band first, so a
	// halt cannot leave a request half settled
	for _, v := range active {
		band, snapshot, err := vault.CurrentBand(v.Id)
		if nil != err {
			return err
		}
		if priceband.Halted == band {
			return vault.HaltCause(snapshot)
		}
	}

	// plan the whole pro-rata split before touching any vault: the
	// flooring shortfall rides on the largest holding, spilling over
	// to the others when that holding lacks the headroom, and no draw
	// may exceed its vault's net-minted
	minted := make([]uint64, len(active))
	draws := make([]uint64, len(active))
	largest := 0
	assigned := uint64(0)
	for i, v := range active {
		minted[i] = ledger.NetMinted(v.Id)
		draws[i] = mulDiv(request.Shares, minted[i], totalMinted)
		assigned += draws[i]
		if minted[i] > minted[largest] {
			largest = i
		}
	}

	remaining := request.Shares - assigned
	headroom := minted[largest] - draws[largest]
	if headroom > remaining {
		headroom = remaining
	}
	draws[largest] += headroom
	remaining -= headroom
	for i := range active {
		if 0 == remaining {
			break
		}
		headroom := minted[i] - draws[i]
		if headroom > remaining {
			headroom = remaining
		}
		draws[i] += headroom
		remaining -= headroom
	}
	if 0 != remaining {
		// cannot happen: shares <= Σ minted was checked above
		logger.Panicf("redemption: unassignable remainder: %d", remaining)
	}

	payouts := make([]Payout, 0, len(active))
	for i, v := range active {
		if 0 == draws[i] {
			continue
		}
		assets, err := vault.RedeemShares(v.Id, request.Owner, draws[i])
		if nil != err {
			return err
		}
		payouts = append(payouts, Payout{VaultId: v.Id, Assets: assets})
	}

	request.State = StateProcessed
	request.Payouts = payouts
	return nil
}

// floor(a * b / c) without intermediate overflow
func mulDiv(a uint64, b uint64, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if 0 == hi {
		return lo / c
	}
	quotient, _ := bits.Div64(hi, lo, c)
	return quotient
}

// ClaimRedeem - collect the reserved payout of a processed request
//
// still allowed while the system is paused: the assets were reserved
// when the request was processed and handing them over changes no
// issuance state
func ClaimRedeem(id uint64, owner *account.Account) ([]Payout, error) {

	if mode.Is(mode.Stopped) {
		return nil, fault.SystemPaused
	}
	if nil == owner || owner.IsZero() {
		return nil, fault.ZeroAddress
	}

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	request, err := getRequest(id)
	if nil != err {
		return nil, err
	}
	if !bytes.Equal(request.Owner.Bytes(), owner.Bytes()) {
		return nil, fault.NotOwner
	}
	switch request.State {
	case StateProcessed:
		// fall through to claim
	case StateClaimed:
		return nil, fault.AlreadyClaimed
	default:
		return nil, fault.NotProcessed
	}

	request.State = StateClaimed
	storage.Pool.Requests.Put(idKey(id), packRequest(request))

	globalData.log.Infof("claimed: %d", id)
	messagebus.Bus.Events.Send("redemption-claimed", idKey(id))
	return request.Payouts, nil
}

// GetRequest - a copy of one request for inspection
func GetRequest(id uint64) (Request, error) {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return Request{}, fault.NotInitialised
	}

	request, err := getRequest(id)
	if nil != err {
		return Request{}, err
	}
	return *request, nil
}

// QueueLength - number of requests awaiting processing
func QueueLength() uint64 {
	globalData.Lock()
	defer globalData.Unlock()
	return queueLength()
}

func getRequest(id uint64) (*Request, error) {
	buffer := storage.Pool.Requests.Get(idKey(id))
	if nil == buffer {
		return nil, fault.RequestNotFound
	}
	return unpackRequest(id, buffer)
}
