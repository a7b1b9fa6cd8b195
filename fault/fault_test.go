// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/openpeg/pegd/fault"
)

var (
	errInvalidOne  = fault.InvalidError("invalid one")
	errAuthOne     = fault.AuthorizationError("auth one")
	errCapacityOne = fault.CapacityError("capacity one")
	errPriceOne    = fault.PriceError("price one")
	errOverflowOne = fault.OverflowError("overflow one")
	errNotFoundOne = fault.NotFoundError("not found one")
	errExistsOne   = fault.ExistsError("exists one")
	errProcessOne  = fault.ProcessError("process one")
)

// test that errors classify into exactly one class
func TestClassification(t *testing.T) {
	errorList := []struct {
		err      error
		invalid  bool
		auth     bool
		capacity bool
		price    bool
		overflow bool
		notFound bool
		exists   bool
		process  bool
	}{
		{errInvalidOne, true, false, false, false, false, false, false, false},
		{errAuthOne, false, true, false, false, false, false, false, false},
		{errCapacityOne, false, false, true, false, false, false, false, false},
		{errPriceOne, false, false, false, true, false, false, false, false},
		{errOverflowOne, false, false, false, false, true, false, false, false},
		{errNotFoundOne, false, false, false, false, false, true, false, false},
		{errExistsOne, false, false, false, false, false, false, true, false},
		{errProcessOne, false, false, false, false, false, false, false, true},
		{fault.CapExceeded, false, false, true, false, false, false, false, false},
		{fault.OracleStale, false, false, false, true, false, false, false, false},
		{fault.PrecisionOverflow, false, false, false, false, true, false, false, false},
		{fault.Unauthorized, false, true, false, false, false, false, false, false},
		{fault.ZeroAmount, true, false, false, false, false, false, false, false},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrAuthorization(err) != e.auth {
			t.Errorf("%d: expected 'authorization' == %v for err = %v", i, e.auth, err)
		}
		if fault.IsErrCapacity(err) != e.capacity {
			t.Errorf("%d: expected 'capacity' == %v for err = %v", i, e.capacity, err)
		}
		if fault.IsErrPrice(err) != e.price {
			t.Errorf("%d: expected 'price' == %v for err = %v", i, e.price, err)
		}
		if fault.IsErrOverflow(err) != e.overflow {
			t.Errorf("%d: expected 'overflow' == %v for err = %v", i, e.overflow, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
	}
}

// errors must compare equal to themselves so callers can switch on them
func TestComparable(t *testing.T) {
	if fault.CapExceeded != fault.CapExceeded {
		t.Error("CapExceeded is not comparable")
	}
	var err error = fault.SystemPaused
	if fault.SystemPaused != err {
		t.Error("SystemPaused does not compare through the error interface")
	}
}
