// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/logger"
)

// Transaction - a set of pool writes applied as one database write
//
// mutations that must land together, like a net-minted update and the
// matching supply record, are staged here and committed atomically so
// a crash can never leave the pools disagreeing
type Transaction struct {
	batch leveldb.Batch
}

// NewTransaction - create an empty write set
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Put - stage a key/value pair for a pool
func (trx *Transaction) Put(pool *PoolHandle, key []byte, value []byte) {
	trx.batch.Put(pool.prefixKey(key), value)
}

// PutN - stage a uint64 as an 8 byte big endian record
func (trx *Transaction) PutN(pool *PoolHandle, key []byte, n uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	trx.Put(pool, key, buffer)
}

// Delete - stage a key removal for a pool
func (trx *Transaction) Delete(pool *PoolHandle, key []byte) {
	trx.batch.Delete(pool.prefixKey(key))
}

// Commit - apply all staged writes in one atomic database write
func (trx *Transaction) Commit() {
	poolData.RLock()
	defer poolData.RUnlock()
	if nil == poolData.db {
		logger.Panic("transaction.Commit nil database")
		return
	}
	err := poolData.db.Write(&trx.batch, nil)
	logger.PanicIfError("transaction.Commit", err)
	trx.batch.Reset()
}

// Abort - drop all staged writes
func (trx *Transaction) Abort() {
	trx.batch.Reset()
}
