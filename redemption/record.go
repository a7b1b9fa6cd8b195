// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package redemption

import (
	"encoding/binary"
	"time"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/fault"
)

// pack a request record for storage
//
// layout: state byte, shares, creation time in unix nanoseconds,
// length-prefixed owner bytes, payout count, then per payout the
// asset amount and a length-prefixed vault id
func packRequest(request *Request) []byte {
	owner := request.Owner.Bytes()

	buffer := make([]byte, 0, 1+8+8+1+len(owner)+1+len(request.Payouts)*(8+1+16))
	buffer = append(buffer, byte(request.State))
	buffer = appendUint64(buffer, request.Shares)
	buffer = appendUint64(buffer, uint64(request.CreatedAt.UnixNano()))
	buffer = append(buffer, byte(len(owner)))
	buffer = append(buffer, owner...)
	buffer = append(buffer, byte(len(request.Payouts)))
	for _, payout := range request.Payouts {
		buffer = appendUint64(buffer, payout.Assets)
		buffer = append(buffer, byte(len(payout.VaultId)))
		buffer = append(buffer, payout.VaultId...)
	}
	return buffer
}

// unpack a stored request record
func unpackRequest(id uint64, buffer []byte) (*Request, error) {
	if len(buffer) < 1+8+8+1 {
		return nil, fault.InvalidItem
	}

	request := &Request{
		Id:     id,
		State:  State(buffer[0]),
		Shares: binary.BigEndian.Uint64(buffer[1:]),
	}
	request.CreatedAt = time.Unix(0, int64(binary.BigEndian.Uint64(buffer[9:])))

	n := int(buffer[17])
	buffer = buffer[18:]
	if len(buffer) < n+1 {
		return nil, fault.InvalidItem
	}
	owner, err := account.AccountFromBytes(buffer[:n])
	if nil != err {
		return nil, err
	}
	request.Owner = owner
	buffer = buffer[n:]

	count := int(buffer[0])
	buffer = buffer[1:]
	payouts := make([]Payout, 0, count)
	for i := 0; i < count; i += 1 {
		if len(buffer) < 9 {
			return nil, fault.InvalidItem
		}
		assets := binary.BigEndian.Uint64(buffer)
		m := int(buffer[8])
		buffer = buffer[9:]
		if len(buffer) < m {
			return nil, fault.InvalidItem
		}
		payouts = append(payouts, Payout{
			VaultId: string(buffer[:m]),
			Assets:  assets,
		})
		buffer = buffer[m:]
	}
	if count > 0 {
		request.Payouts = payouts
	}

	return request, nil
}

func appendUint64(buffer []byte, n uint64) []byte {
	scratch := make([]byte, 8)
	binary.BigEndian.PutUint64(scratch, n)
	return append(buffer, scratch...)
}
