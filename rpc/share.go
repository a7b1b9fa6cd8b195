// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/token"
)

// Share - share token queries
type Share struct {
	log     *logger.L
	limiter *rate.Limiter
}

// BalanceArguments - account lookup
type BalanceArguments struct {
	Owner *account.Account `json:"owner"`
}

// BalanceReply - spendable and escrowed holdings
type BalanceReply struct {
	Balance uint64 `json:"balance,string"`
	Escrow  uint64 `json:"escrow,string"`
}

// Balance - holdings of one account on this ledger
func (s *Share) Balance(arguments *BalanceArguments, reply *BalanceReply) error {
	if err := rateLimit(s.limiter); nil != err {
		return err
	}

	if nil == arguments.Owner || arguments.Owner.IsZero() {
		return fault.ZeroAddress
	}

	reply.Balance = token.BalanceOf(arguments.Owner)
	reply.Escrow = token.EscrowOf(arguments.Owner)
	return nil
}

// SupplyArguments - no arguments
type SupplyArguments struct{}

// SupplyReply - issuance figures
type SupplyReply struct {
	GlobalIssued uint64 `json:"globalIssued,string"`
	LocalSupply  uint64 `json:"localSupply,string"`
}

// Supply - global issued supply and the local circulating supply
func (s *Share) Supply(arguments *SupplyArguments, reply *SupplyReply) error {
	if err := rateLimit(s.limiter); nil != err {
		return err
	}

	reply.GlobalIssued = ledger.GlobalIssued()
	reply.LocalSupply = token.LocalSupply()
	return nil
}
