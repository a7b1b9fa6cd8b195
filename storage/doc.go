// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintains a single LevelDB database containing the persistent
// ledger state; each exported pool is identified by a one byte
// prefix so that unrelated records cannot collide
//
// vault registry:
//
//	V<vault-id>      - packed vault record
//	M<vault-id>      - 8 byte net-minted amount
//
// issuance:
//
//	S<"global">      - 8 byte global issued supply
//	L<ledger-name>   - 8 byte local circulating supply
//
// share balances:
//
//	B<account-bytes> - 8 byte balance
//	E<account-bytes> - 8 byte escrowed balance
//
// redemption queue:
//
//	R<id>            - packed redemption request
//	Q<id>            - empty value, presence marks a queued request
//	N<"next">        - 8 byte next request id
package storage
