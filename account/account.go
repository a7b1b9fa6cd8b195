// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account - holder identities
//
// an account is an ed25519 public key tagged with the network it
// belongs to; the text form is base58 over flag byte + key + a
// 4 byte SHA3-256 checksum
package account

import (
	"bytes"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/openpeg/pegd/fault"
)

// miscellaneous constants
const (
	checksumLength = 4

	// bits in the flag byte
	testKeyCode = 0x01
)

// Account - the owner of a balance or a redemption request
type Account struct {
	Test      bool
	PublicKey []byte
}

// AccountFromBase58 - convert a base58 encoded string to an account
func AccountFromBase58(accountBase58Encoded string) (*Account, error) {
	accountDecoded, err := base58.Decode(accountBase58Encoded)
	if nil != err || 0 == len(accountDecoded) {
		return nil, fault.CannotDecodeAccount
	}

	// length = flag + key + checksum
	if len(accountDecoded) != 1+ed25519.PublicKeySize+checksumLength {
		return nil, fault.InvalidKeyLength
	}

	checksumStart := len(accountDecoded) - checksumLength
	checksum := sha3.Sum256(accountDecoded[:checksumStart])
	if !bytes.Equal(checksum[:checksumLength], accountDecoded[checksumStart:]) {
		return nil, fault.ChecksumMismatch
	}

	account := &Account{
		Test:      0 != accountDecoded[0]&testKeyCode,
		PublicKey: accountDecoded[1:checksumStart],
	}
	return account, nil
}

// AccountFromBytes - convert the packed form to an account
func AccountFromBytes(accountBytes []byte) (*Account, error) {
	if len(accountBytes) != 1+ed25519.PublicKeySize {
		return nil, fault.InvalidKeyLength
	}
	account := &Account{
		Test:      0 != accountBytes[0]&testKeyCode,
		PublicKey: accountBytes[1:],
	}
	return account, nil
}

// Bytes - the packed form: flag byte followed by the public key
func (account *Account) Bytes() []byte {
	flag := byte(0)
	if account.Test {
		flag |= testKeyCode
	}
	buffer := make([]byte, 0, 1+len(account.PublicKey))
	buffer = append(buffer, flag)
	return append(buffer, account.PublicKey...)
}

// IsZero - check for the all-zero account, which is never a valid
// recipient or holder
func (account *Account) IsZero() bool {
	if nil == account || 0 == len(account.PublicKey) {
		return true
	}
	for _, b := range account.PublicKey {
		if 0 != b {
			return false
		}
	}
	return true
}

// IsTesting - true if the account belongs to a test network
func (account *Account) IsTesting() bool {
	return account.Test
}

// CheckSignature - verify an ed25519 signature made by this account
func (account *Account) CheckSignature(message []byte, signature []byte) error {
	if ed25519.SignatureSize != len(signature) {
		return fault.InvalidSignature
	}
	if !ed25519.Verify(account.PublicKey, message, signature) {
		return fault.InvalidSignature
	}
	return nil
}

// String - base58 encoded bytes with checksum
func (account *Account) String() string {
	buffer := account.Bytes()
	checksum := sha3.Sum256(buffer)
	buffer = append(buffer, checksum[:checksumLength]...)
	return base58.Encode(buffer)
}

// MarshalText - convert an account to its text form
func (account Account) MarshalText() ([]byte, error) {
	return []byte(account.String()), nil
}

// UnmarshalText - convert text form back to an account
func (account *Account) UnmarshalText(s []byte) error {
	a, err := AccountFromBase58(string(s))
	if nil != err {
		return err
	}
	account.Test = a.Test
	account.PublicKey = a.PublicKey
	return nil
}
