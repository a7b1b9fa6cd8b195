// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/bridge"
	"github.com/openpeg/pegd/fault"
)

// Bridge - cross-ledger transfer operations
//
// transfers out are signed by the holder; inbound credits are relayed
// by an administrator once the source ledger's debit is final
type Bridge struct {
	log            *logger.L
	administrators AdministratorList
	limiter        *rate.Limiter
}

// TransferOutArguments - owner signed outbound transfer
type TransferOutArguments struct {
	From      *account.Account `json:"from"`
	ToLedger  string           `json:"toLedger"`
	Amount    uint64           `json:"amount,string"`
	Signature []byte           `json:"signature"`
}

// TransferOutReply - transfer confirmation
type TransferOutReply struct {
	ToLedger string `json:"toLedger"`
	Amount   uint64 `json:"amount,string"`
}

// TransferOut - move shares to another ledger
func (b *Bridge) TransferOut(arguments *TransferOutArguments, reply *TransferOutReply) error {
	if err := rateLimit(b.limiter); nil != err {
		return err
	}

	message := signatureMessage("bridge.out",
		[]byte(arguments.ToLedger),
		uint64Bytes(arguments.Amount),
	)
	err := verifyOwner(arguments.From, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = bridge.TransferOut(arguments.From, arguments.ToLedger, arguments.Amount)
	if nil != err {
		return err
	}
	reply.ToLedger = arguments.ToLedger
	reply.Amount = arguments.Amount
	return nil
}

// TransferInArguments - admin relayed inbound transfer
type TransferInArguments struct {
	To            *account.Account `json:"to"`
	FromLedger    string           `json:"fromLedger"`
	Amount        uint64           `json:"amount,string"`
	Administrator *account.Account `json:"administrator"`
	Signature     []byte           `json:"signature"`
}

// TransferInReply - transfer confirmation
type TransferInReply struct {
	FromLedger string `json:"fromLedger"`
	Amount     uint64 `json:"amount,string"`
}

// TransferIn - settle an inbound transfer from another ledger
func (b *Bridge) TransferIn(arguments *TransferInArguments, reply *TransferInReply) error {
	if err := rateLimit(b.limiter); nil != err {
		return err
	}

	if nil == arguments.To || arguments.To.IsZero() {
		return fault.ZeroAddress
	}

	message := signatureMessage("bridge.in",
		arguments.To.Bytes(),
		[]byte(arguments.FromLedger),
		uint64Bytes(arguments.Amount),
	)
	err := b.administrators.verify(arguments.Administrator, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = bridge.TransferIn(arguments.To, arguments.FromLedger, arguments.Amount)
	if nil != err {
		return err
	}
	reply.FromLedger = arguments.FromLedger
	reply.Amount = arguments.Amount
	return nil
}
