// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/account"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/vault"
)

// Vault - vault registry operations
//
// administrative calls are signed by a configured administrator
// account; the signature covers every request field
type Vault struct {
	log            *logger.L
	administrators AdministratorList
	limiter        *rate.Limiter
}

// VaultRegisterArguments - admin signed registration
type VaultRegisterArguments struct {
	Id             string           `json:"id"`
	Asset          string           `json:"asset"`
	Cap            uint64           `json:"cap"`
	Precision      uint64           `json:"precision"`
	MinimumDeposit uint64           `json:"minimumDeposit,string"`
	Administrator  *account.Account `json:"administrator"`
	Signature      []byte           `json:"signature"`
}

// VaultRegisterReply - registration confirmation
type VaultRegisterReply struct {
	Id string `json:"id"`
}

// Register - add a new vault to the registry
func (v *Vault) Register(arguments *VaultRegisterArguments, reply *VaultRegisterReply) error {
	if err := rateLimit(v.limiter); nil != err {
		return err
	}

	message := signatureMessage("vault.register",
		[]byte(arguments.Id),
		[]byte(arguments.Asset),
		uint64Bytes(arguments.Cap),
		uint64Bytes(arguments.Precision),
		uint64Bytes(arguments.MinimumDeposit),
	)
	err := v.administrators.verify(arguments.Administrator, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = vault.Register(arguments.Id, arguments.Asset, arguments.Cap, arguments.Precision, arguments.MinimumDeposit)
	if nil != err {
		return err
	}
	reply.Id = arguments.Id
	return nil
}

// VaultCapArguments - admin signed cap change
type VaultCapArguments struct {
	Id            string           `json:"id"`
	Cap           uint64           `json:"cap"`
	Administrator *account.Account `json:"administrator"`
	Signature     []byte           `json:"signature"`
}

// VaultCapReply - cap change confirmation
type VaultCapReply struct {
	Id  string `json:"id"`
	Cap uint64 `json:"cap"`
}

// SetCap - change a vault's cap
func (v *Vault) SetCap(arguments *VaultCapArguments, reply *VaultCapReply) error {
	if err := rateLimit(v.limiter); nil != err {
		return err
	}

	message := signatureMessage("vault.setcap",
		[]byte(arguments.Id),
		uint64Bytes(arguments.Cap),
	)
	err := v.administrators.verify(arguments.Administrator, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = vault.SetCap(arguments.Id, arguments.Cap)
	if nil != err {
		return err
	}
	reply.Id = arguments.Id
	reply.Cap = arguments.Cap
	return nil
}

// VaultSuspendArguments - admin signed suspension toggle
type VaultSuspendArguments struct {
	Id            string           `json:"id"`
	Suspended     bool             `json:"suspended"`
	Administrator *account.Account `json:"administrator"`
	Signature     []byte           `json:"signature"`
}

// VaultSuspendReply - suspension confirmation
type VaultSuspendReply struct {
	Id        string `json:"id"`
	Suspended bool   `json:"suspended"`
}

// Suspend - set or clear a vault's suspension flag
func (v *Vault) Suspend(arguments *VaultSuspendArguments, reply *VaultSuspendReply) error {
	if err := rateLimit(v.limiter); nil != err {
		return err
	}

	flag := []byte{0}
	if arguments.Suspended {
		flag[0] = 1
	}
	message := signatureMessage("vault.suspend", []byte(arguments.Id), flag)
	err := v.administrators.verify(arguments.Administrator, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = vault.Suspend(arguments.Id, arguments.Suspended)
	if nil != err {
		return err
	}
	reply.Id = arguments.Id
	reply.Suspended = arguments.Suspended
	return nil
}

// VaultDeregisterArguments - admin signed retirement
type VaultDeregisterArguments struct {
	Id            string           `json:"id"`
	Administrator *account.Account `json:"administrator"`
	Signature     []byte           `json:"signature"`
}

// VaultDeregisterReply - retirement confirmation
type VaultDeregisterReply struct {
	Id string `json:"id"`
}

// Deregister - retire a vault, keeping its audit history
func (v *Vault) Deregister(arguments *VaultDeregisterArguments, reply *VaultDeregisterReply) error {
	if err := rateLimit(v.limiter); nil != err {
		return err
	}

	message := signatureMessage("vault.deregister", []byte(arguments.Id))
	err := v.administrators.verify(arguments.Administrator, arguments.Signature, message)
	if nil != err {
		return err
	}

	err = vault.Deregister(arguments.Id)
	if nil != err {
		return err
	}
	reply.Id = arguments.Id
	return nil
}

// DepositArguments - owner signed deposit
type DepositArguments struct {
	Id        string           `json:"id"`
	Assets    uint64           `json:"assets,string"`
	Receiver  *account.Account `json:"receiver"`
	Signature []byte           `json:"signature"`
}

// DepositReply - shares minted for the deposit
type DepositReply struct {
	Shares uint64 `json:"shares,string"`
}

// Deposit - exchange collateral for shares
func (v *Vault) Deposit(arguments *DepositArguments, reply *DepositReply) error {
	if err := rateLimit(v.limiter); nil != err {
		return err
	}

	message := signatureMessage("vault.deposit",
		[]byte(arguments.Id),
		uint64Bytes(arguments.Assets),
	)
	err := verifyOwner(arguments.Receiver, arguments.Signature, message)
	if nil != err {
		return err
	}

	shares, err := vault.Deposit(arguments.Id, arguments.Assets, arguments.Receiver)
	if nil != err {
		return err
	}
	reply.Shares = shares
	return nil
}

// VaultListArguments - no arguments
type VaultListArguments struct{}

// VaultInfo - public view of one vault
type VaultInfo struct {
	Id             string `json:"id"`
	Asset          string `json:"asset"`
	Cap            uint64 `json:"cap"`
	Precision      uint64 `json:"precision"`
	MinimumDeposit uint64 `json:"minimumDeposit,string"`
	TotalAssets    uint64 `json:"totalAssets,string"`
	NetMinted      uint64 `json:"netMinted,string"`
	Suspended      bool   `json:"suspended"`
	Deregistered   bool   `json:"deregistered"`
}

// VaultListReply - all vaults, retired ones included
type VaultListReply struct {
	Vaults []VaultInfo `json:"vaults"`
}

// List - enumerate the registry
func (v *Vault) List(arguments *VaultListArguments, reply *VaultListReply) error {
	if err := rateLimit(v.limiter); nil != err {
		return err
	}

	for _, item := range vault.List() {
		reply.Vaults = append(reply.Vaults, VaultInfo{
			Id:             item.Id,
			Asset:          item.Asset,
			Cap:            item.Cap,
			Precision:      item.Precision,
			MinimumDeposit: item.MinimumDeposit,
			TotalAssets:    item.TotalAssets,
			NetMinted:      ledger.NetMinted(item.Id),
			Suspended:      item.Suspended,
			Deregistered:   item.Deregistered,
		})
	}
	return nil
}
