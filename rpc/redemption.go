// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/constants"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/redemption"
)

// Redemption - redemption queue operations
type Redemption struct {
	log            *logger.L
	administrators AdministratorList
	limiter        *rate.Limiter
}

// RedeemRequestArguments - owner signed redemption request
type RedeemRequestArguments struct {
	Owner     *account.Account `json:"owner"`
	Shares    uint64           `json:"shares,string"`
	Signature []byte           `json:"signature"`
}

// RedeemRequestReply - the queued request
type RedeemRequestReply struct {
	RequestId uint64 `json:"requestId"`
}

// Request - queue a redemption, escrowing the shares
func (r *Redemption) Request(arguments *RedeemRequestArguments, reply *RedeemRequestReply) error {
	if err := rateLimit(r.limiter); nil != err {
		return err
	}

	message := signatureMessage("redemption.request", uint64Bytes(arguments.Shares))
	err := verifyOwner(arguments.Owner, arguments.Signature, message)
	if nil != err {
		return err
	}

	id, err := redemption.RequestRedeem(arguments.Owner, arguments.Shares)
	if nil != err {
		return err
	}
	reply.RequestId = id
	return nil
}

// RedeemCancelArguments - owner signed cancellation
type RedeemCancelArguments struct {
	RequestId uint64           `json:"requestId"`
	Owner     *account.Account `json:"owner"`
	Signature []byte           `json:"signature"`
}

// RedeemCancelReply - cancellation confirmation
type RedeemCancelReply struct {
	RequestId uint64 `json:"requestId"`
}

// Cancel - withdraw a pending request, returning the escrow
func (r *Redemption) Cancel(arguments *RedeemCancelArguments, reply *RedeemCancelReply) error {
	if err := rateLimit(r.limiter); nil != err {
		return err
	}

	message := signatureMessage("redemption.cancel", uint64Bytes(arguments.RequestId))
	err := verifyOwner(arguments.Owner, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = redemption.CancelRedeem(arguments.RequestId, arguments.Owner)
	if nil != err {
		return err
	}
	reply.RequestId = arguments.RequestId
	return nil
}

// ProcessArguments - admin signed batch trigger
type ProcessArguments struct {
	Count         int              `json:"count"`
	Administrator *account.Account `json:"administrator"`
	Signature     []byte           `json:"signature"`
}

// ProcessReply - how far the batch got
//
// Stopped carries the price precondition that ended the batch early;
// empty when the whole batch ran
type ProcessReply struct {
	Processed int    `json:"processed"`
	Stopped   string `json:"stopped,omitempty"`
}

// Process - settle queued requests in FIFO order
func (r *Redemption) Process(arguments *ProcessArguments, reply *ProcessReply) error {
	if err := rateLimitN(r.limiter, arguments.Count, constants.MaximumProcessBatch); nil != err {
		return err
	}

	message := signatureMessage("redemption.process", uint64Bytes(uint64(arguments.Count)))
	err := r.administrators.verify(arguments.Administrator, arguments.Signature, message)
	if nil != err {
		return err
	}

	processed, err := redemption.ProcessBatch(arguments.Count)
	reply.Processed = processed
	if nil != err && fault.SystemPaused != err && fault.IsErrPrice(err) {
		// stopping at a halted band is a result, not a failure; an
		// error return would discard the processed count
		reply.Stopped = err.Error()
		return nil
	}
	return err
}

// RedeemClaimArguments - owner signed claim
type RedeemClaimArguments struct {
	RequestId uint64           `json:"requestId"`
	Owner     *account.Account `json:"owner"`
	Signature []byte           `json:"signature"`
}

// PayoutInfo - one reserved payout
type PayoutInfo struct {
	VaultId string `json:"vaultId"`
	Assets  uint64 `json:"assets,string"`
}

// RedeemClaimReply - the reserved payouts handed over
type RedeemClaimReply struct {
	RequestId uint64       `json:"requestId"`
	Payouts   []PayoutInfo `json:"payouts"`
}

// Claim - collect the payout of a processed request
func (r *Redemption) Claim(arguments *RedeemClaimArguments, reply *RedeemClaimReply) error {
	if err := rateLimit(r.limiter); nil != err {
		return err
	}

	message := signatureMessage("redemption.claim", uint64Bytes(arguments.RequestId))
	err := verifyOwner(arguments.Owner, arguments.Signature, message)
	if nil != err {
		return err
	}

	payouts, err := redemption.ClaimRedeem(arguments.RequestId, arguments.Owner)
	if nil != err {
		return err
	}
	reply.RequestId = arguments.RequestId
	for _, payout := range payouts {
		reply.Payouts = append(reply.Payouts, PayoutInfo{
			VaultId: payout.VaultId,
			Assets:  payout.Assets,
		})
	}
	return nil
}

// RedeemStatusArguments - request lookup
type RedeemStatusArguments struct {
	RequestId uint64 `json:"requestId"`
}

// RedeemStatusReply - current state of a request
type RedeemStatusReply struct {
	RequestId uint64       `json:"requestId"`
	Owner     string       `json:"owner"`
	Shares    uint64       `json:"shares,string"`
	CreatedAt time.Time    `json:"createdAt"`
	State     string       `json:"state"`
	Payouts   []PayoutInfo `json:"payouts,omitempty"`
}

var stateNames = map[redemption.State]string{
	redemption.StatePending:   "Pending",
	redemption.StateProcessed: "Processed",
	redemption.StateClaimed:   "Claimed",
	redemption.StateCancelled: "Cancelled",
}

// Status - inspect one request
func (r *Redemption) Status(arguments *RedeemStatusArguments, reply *RedeemStatusReply) error {
	if err := rateLimit(r.limiter); nil != err {
		return err
	}

	request, err := redemption.GetRequest(arguments.RequestId)
	if nil != err {
		return err
	}

	reply.RequestId = request.Id
	reply.Owner = request.Owner.String()
	reply.Shares = request.Shares
	reply.CreatedAt = request.CreatedAt
	reply.State = stateNames[request.State]
	for _, payout := range request.Payouts {
		reply.Payouts = append(reply.Payouts, PayoutInfo{
			VaultId: payout.VaultId,
			Assets:  payout.Assets,
		})
	}
	return nil
}
