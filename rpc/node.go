// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/redemption"
	"github.com/openpeg/pegd/token"
)

// Node - daemon status queries
type Node struct {
	log     *logger.L
	start   time.Time
	version string
	limiter *rate.Limiter
}

// InfoArguments - no arguments
type InfoArguments struct{}

// InfoReply - status summary of this daemon
type InfoReply struct {
	Chain        string `json:"chain"`
	Mode         string `json:"mode"`
	GlobalIssued uint64 `json:"globalIssued,string"`
	LocalSupply  uint64 `json:"localSupply,string"`
	QueueLength  uint64 `json:"queueLength"`
	RPCs         uint64 `json:"rpcs"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
}

// Info - return some information about this daemon
func (node *Node) Info(arguments *InfoArguments, reply *InfoReply) error {
	if err := rateLimit(node.limiter); nil != err {
		return err
	}

	reply.Chain = mode.LedgerName()
	reply.Mode = mode.String()
	reply.GlobalIssued = ledger.GlobalIssued()
	reply.LocalSupply = token.LocalSupply()
	reply.QueueLength = redemption.QueueLength()
	reply.RPCs = connectionCount.Uint64()
	reply.Version = node.version
	reply.Uptime = time.Since(node.start).String()

	return nil
}
