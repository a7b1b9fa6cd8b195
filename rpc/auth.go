// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/binary"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/mode"
)

// AdministratorList - accounts allowed to perform admin operations
type AdministratorList map[string]bool

// NewAdministratorList - build the admin set from base58 account texts
func NewAdministratorList(accounts []string) (AdministratorList, error) {
	list := make(AdministratorList, len(accounts))
	for _, text := range accounts {
		admin, err := account.AccountFromBase58(text)
		if nil != err {
			return nil, err
		}
		list[admin.String()] = true
	}
	return list, nil
}

// signature payload: operation tag then length-prefixed fields, so no
// two distinct requests can share a byte string
func signatureMessage(operation string, parts ...[]byte) []byte {
	size := len(operation) + 1
	for _, part := range parts {
		size += 2 + len(part)
	}
	message := make([]byte, 0, size)
	message = append(message, byte(len(operation)))
	message = append(message, operation...)
	for _, part := range parts {
		scratch := make([]byte, 2)
		binary.BigEndian.PutUint16(scratch, uint16(len(part)))
		message = append(message, scratch...)
		message = append(message, part...)
	}
	return message
}

func uint64Bytes(n uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}

// verify a signature by the account itself
func verifyOwner(owner *account.Account, signature []byte, message []byte) error {
	if nil == owner || owner.IsZero() {
		return fault.ZeroAddress
	}
	if owner.IsTesting() != mode.IsTesting() {
		return fault.WrongNetworkForAccount
	}
	return owner.CheckSignature(message, signature)
}

// verify a signature by a configured administrator
func (l AdministratorList) verify(admin *account.Account, signature []byte, message []byte) error {
	err := verifyOwner(admin, signature, message)
	if nil != err {
		return err
	}
	if !l[admin.String()] {
		return fault.Unauthorized
	}
	return nil
}
