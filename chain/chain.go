// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - names of the ledgers the daemon can settle against
//
// the canonical ledger is the one whose issuance accounting is
// authoritative; mirrored balances on any other ledger never affect
// the global issued supply
package chain

// names of all runnable ledgers
const (
	Canonical = "canonical"
	Testing   = "testing"
	Local     = "local"
)

// Valid - validate a ledger name
func Valid(name string) bool {
	switch name {
	case Canonical, Testing, Local:
		return true
	default:
		return false
	}
}

// IsTesting - true for ledgers that run with test accounts
func IsTesting(name string) bool {
	switch name {
	case Testing, Local:
		return true
	default:
		return false
	}
}
