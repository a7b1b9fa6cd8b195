// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - the client RPC interface
//
// JSON-RPC over TLS; one service per domain surface, each with its
// own rate limit
package rpc

import (
	"io"
	netrpc "net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/counter"
)

// ServerArgument - the argument passed to the listener callback
type ServerArgument struct {
	Log    *logger.L
	Server *netrpc.Server
}

// tracks simultaneous RPC connections
var connectionCount counter.Counter

// ConnectionCount - current number of connected clients
func ConnectionCount() uint64 {
	return connectionCount.Uint64()
}

// Callback - handle a single connection
func Callback(conn io.ReadWriteCloser, argument interface{}) {

	serverArgument := argument.(*ServerArgument)
	if nil == serverArgument.Server {
		logger.Panic("rpc: nil server")
	}

	connectionCount.Increment()
	defer connectionCount.Decrement()

	codec := jsonrpc.NewServerCodec(conn)
	defer codec.Close()
	serverArgument.Server.ServeCodec(codec)
}

// CreateServer - make a new RPC server with all services attached
func CreateServer(log *logger.L, version string, start time.Time, administrators AdministratorList) *netrpc.Server {

	server := netrpc.NewServer()

	server.Register(&Node{
		log:     log,
		start:   start,
		version: version,
		limiter: rate.NewLimiter(rate.Limit(rateLimitNode), rateBurstNode),
	})
	server.Register(&Vault{
		log:            log,
		administrators: administrators,
		limiter:        rate.NewLimiter(rate.Limit(rateLimitVault), rateBurstVault),
	})
	server.Register(&Redemption{
		log:            log,
		administrators: administrators,
		limiter:        rate.NewLimiter(rate.Limit(rateLimitVault), rateBurstVault),
	})
	server.Register(&Bridge{
		log:            log,
		administrators: administrators,
		limiter:        rate.NewLimiter(rate.Limit(rateLimitBridge), rateBurstBridge),
	})
	server.Register(&Share{
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimitShare), rateBurstShare),
	})

	return server
}
