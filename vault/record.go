// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vault

import (
	"encoding/binary"

	"github.com/openpeg/pegd/conversion"
	"github.com/openpeg/pegd/fault"
)

// record flag bits
const (
	flagSuspended    = 0x01
	flagDeregistered = 0x02
)

// fixed part: flag byte + cap + precision + minimum deposit + total assets
const packedFixedSize = 1 + 4*8

// pack a vault record for storage, asset symbol is the variable tail
func packVault(v *Vault) []byte {
	buffer := make([]byte, packedFixedSize, packedFixedSize+len(v.Asset))

	if v.Suspended {
		buffer[0] |= flagSuspended
	}
	if v.Deregistered {
		buffer[0] |= flagDeregistered
	}
	binary.BigEndian.PutUint64(buffer[1:], v.Cap)
	binary.BigEndian.PutUint64(buffer[9:], v.Precision)
	binary.BigEndian.PutUint64(buffer[17:], v.MinimumDeposit)
	binary.BigEndian.PutUint64(buffer[25:], v.TotalAssets)

	return append(buffer, v.Asset...)
}

// unpack a stored vault record, rederiving the conversion constants
func unpackVault(id string, buffer []byte) (*Vault, error) {
	if len(buffer) < packedFixedSize {
		return nil, fault.InvalidItem
	}

	v := &Vault{
		Id:             id,
		Suspended:      0 != buffer[0]&flagSuspended,
		Deregistered:   0 != buffer[0]&flagDeregistered,
		Cap:            binary.BigEndian.Uint64(buffer[1:]),
		Precision:      binary.BigEndian.Uint64(buffer[9:]),
		MinimumDeposit: binary.BigEndian.Uint64(buffer[17:]),
		TotalAssets:    binary.BigEndian.Uint64(buffer[25:]),
		Asset:          string(buffer[packedFixedSize:]),
	}
	if 0 == len(v.Asset) {
		return nil, fault.InvalidItem
	}

	parameters, err := conversion.NewParameters(v.Precision)
	if nil != err {
		return nil, err
	}
	v.parameters = parameters

	return v, nil
}
