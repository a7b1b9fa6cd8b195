// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package oracle_test

import (
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/oracle"
)

const testingDirName = "testing"

func setup(t *testing.T) *oracle.StaticSource {
	removeFiles()
	err := os.Mkdir(testingDirName, 0700)
	if nil != err {
		t.Fatalf("mkdir error: %s", err)
	}
	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	err = logger.Initialise(logging)
	if nil != err {
		t.Fatalf("logger initialise error: %s", err)
	}

	source := oracle.NewStaticSource()
	err = oracle.Initialise(source, 50*time.Millisecond)
	if nil != err {
		t.Fatalf("oracle initialise error: %s", err)
	}
	return source
}

func teardown(t *testing.T) {
	err := oracle.Finalise()
	if nil != err {
		t.Errorf("oracle finalise error: %s", err)
	}
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	os.RemoveAll(testingDirName)
}

func TestFetch(t *testing.T) {
	source := setup(t)
	defer teardown(t)

	now := time.Now()
	source.SetPrice("wraps", 999500, 999400, now)

	snapshot, err := oracle.Fetch("wraps")
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}
	if 999500 != snapshot.Price {
		t.Errorf("price: actual: %d  expected: %d", snapshot.Price, 999500)
	}
	if "wraps" != snapshot.Asset {
		t.Errorf("asset: actual: %q  expected: %q", snapshot.Asset, "wraps")
	}
	if snapshot.Age(now) != 0 {
		t.Errorf("age: actual: %s  expected: 0", snapshot.Age(now))
	}
}

func TestFetchUnknownAsset(t *testing.T) {
	_ = setup(t)
	defer teardown(t)

	_, err := oracle.Fetch("missing")
	if nil == err {
		t.Fatal("unexpected success fetching unknown asset")
	}
}

func TestFetchCaching(t *testing.T) {
	source := setup(t)
	defer teardown(t)

	now := time.Now()
	source.SetPrice("wraps", 1000000, 1000000, now)

	first, err := oracle.Fetch("wraps")
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}

	// update the source; the cached reading must still be returned
	source.SetPrice("wraps", 900000, 900000, now)

	second, err := oracle.Fetch("wraps")
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}
	if first.Price != second.Price {
		t.Errorf("cached price: actual: %d  expected: %d", second.Price, first.Price)
	}

	// after a flush the new reading shows through
	oracle.Flush()
	third, err := oracle.Fetch("wraps")
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}
	if 900000 != third.Price {
		t.Errorf("flushed price: actual: %d  expected: %d", third.Price, 900000)
	}
}
