// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/openpeg/pegd/chain"
	"github.com/openpeg/pegd/configuration"
)

const testLuaFile = `
local M = {}

M.data_directory = "."
M.chain = "local"

M.administrators = {
    "eZpxg6oRzYn1Dbh4xRNLM7PbHBLqQYnGJMBnPsPCpWw6HTiqqK",
}

M.client_rpc = {
    maximum_connections = 20,
    listen = {
        "127.0.0.1:2150",
    },
}

M.oracle = {
    cache_expiry_seconds = 10,
    staleness_seconds = 900,
    deviation_tolerance = 5000,
    static_prices = {
        usdc = 1000000,
        usdt = 999800,
    },
}

M.vaults = {
    {
        id = "usdc-main",
        asset = "usdc",
        cap = 10000,
        precision = 6,
        minimum_deposit = 1,
    },
}

M.logging = {
    size = 1048576,
    count = 10,
    levels = {
        DEFAULT = "critical",
    },
}

return M
`

func TestGetConfiguration(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	if nil != err {
		t.Fatalf("tempdir error: %s", err)
	}
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "pegd.conf")
	err = ioutil.WriteFile(fileName, []byte(testLuaFile), 0600)
	if nil != err {
		t.Fatalf("write error: %s", err)
	}

	options, err := configuration.GetConfiguration(fileName)
	if nil != err {
		t.Fatalf("configuration error: %s", err)
	}

	if chain.Local != options.Chain {
		t.Errorf("chain: actual: %q  expected: %q", options.Chain, chain.Local)
	}
	if 20 != options.ClientRPC.MaximumConnections {
		t.Errorf("maximum connections: actual: %d  expected: 20", options.ClientRPC.MaximumConnections)
	}
	if 1 != len(options.ClientRPC.Listen) {
		t.Fatalf("listen: actual: %d entries  expected: 1", len(options.ClientRPC.Listen))
	}

	// the local chain picks the local database by default
	if "local.leveldb" != filepath.Base(options.Database.Name) {
		t.Errorf("database: actual: %q  expected: local.leveldb", filepath.Base(options.Database.Name))
	}
	if !filepath.IsAbs(options.Database.Name) {
		t.Errorf("database not absolute: %q", options.Database.Name)
	}

	if 1000000 != options.Oracle.StaticPrices["usdc"] {
		t.Errorf("usdc price: actual: %d  expected: 1000000", options.Oracle.StaticPrices["usdc"])
	}

	if 1 != len(options.Vaults) {
		t.Fatalf("vaults: actual: %d  expected: 1", len(options.Vaults))
	}
	if "usdc-main" != options.Vaults[0].Id || 6 != options.Vaults[0].Precision {
		t.Errorf("vault: %+v", options.Vaults[0])
	}

	if 1 != len(options.Administrators) {
		t.Errorf("administrators: actual: %d  expected: 1", len(options.Administrators))
	}
}
