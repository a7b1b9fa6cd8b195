// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type (
	// InvalidError - caller supplied malformed parameters, no state change
	InvalidError GenericError

	// AuthorizationError - caller lacks the required capability
	AuthorizationError GenericError

	// CapacityError - transient limit, may succeed later
	CapacityError GenericError

	// PriceError - oracle or price-band rejection, transient
	PriceError GenericError

	// OverflowError - arithmetic out of range, vault is misconfigured
	OverflowError GenericError

	// NotFoundError - referenced item does not exist
	NotFoundError GenericError

	// ExistsError - item already present
	ExistsError GenericError

	// ProcessError - internal processing failure
	ProcessError GenericError
)

// common errors - keep in alphabetic order
var (
	AlreadyClaimed         = InvalidError("already claimed")
	AlreadyInitialised     = ProcessError("already initialised")
	BelowMinimumDeposit    = InvalidError("below minimum deposit")
	CannotDecodeAccount    = InvalidError("cannot decode account")
	CapExceeded            = CapacityError("cap exceeded")
	CapTotalTooLarge       = InvalidError("cap total too large")
	CertificateFileExists  = ExistsError("certificate file exists")
	InsufficientBalance    = InvalidError("insufficient balance")
	InsufficientEscrow     = ProcessError("insufficient escrow")
	InsufficientNetMinted  = InvalidError("insufficient net minted")
	ChecksumMismatch       = InvalidError("checksum mismatch")
	InvalidCount           = InvalidError("invalid count")
	InvalidKeyLength       = InvalidError("invalid key length")
	InvalidSignature       = InvalidError("invalid signature")
	InvalidItem            = InvalidError("invalid item")
	InvalidLedgerName      = InvalidError("invalid ledger name")
	InvalidLoggerChannel   = ProcessError("invalid logger channel")
	InvalidPrecision       = OverflowError("invalid precision")
	InvalidStructPointer   = ProcessError("invalid struct pointer")
	InvalidVaultId         = InvalidError("invalid vault id")
	KeyFileExists          = ExistsError("key file exists")
	MissingParameters      = InvalidError("missing parameters")
	NotInitialised         = ProcessError("not initialised")
	NotOwner               = AuthorizationError("not owner")
	NotPending             = InvalidError("not pending")
	NotProcessed           = InvalidError("not processed")
	OracleDeviation        = PriceError("oracle deviation")
	OracleStale            = PriceError("oracle stale")
	PrecisionOverflow      = OverflowError("precision overflow")
	PriceBelowThreshold    = PriceError("price below threshold")
	QueueFull              = CapacityError("queue full")
	RateLimiting           = CapacityError("rate limiting")
	RequestNotFound        = NotFoundError("request not found")
	SupplyMismatch         = ProcessError("supply mismatch")
	SwapRequired           = PriceError("swap required")
	SystemPaused           = PriceError("system paused")
	Unauthorized           = AuthorizationError("unauthorized")
	VaultAlreadyRegistered = ExistsError("vault already registered")
	VaultNotFound          = NotFoundError("vault not found")
	VaultSuspended         = AuthorizationError("vault suspended")
	WrongNetworkForAccount = InvalidError("wrong network for account")
	WrongPayoutForRequest  = ProcessError("wrong payout for request")
	ZeroAddress            = InvalidError("zero address")
	ZeroAmount             = InvalidError("zero amount")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e InvalidError) Error() string       { return string(e) }
func (e AuthorizationError) Error() string { return string(e) }
func (e CapacityError) Error() string      { return string(e) }
func (e PriceError) Error() string         { return string(e) }
func (e OverflowError) Error() string      { return string(e) }
func (e NotFoundError) Error() string      { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e ProcessError) Error() string       { return string(e) }

// determine the class of an error
func IsErrInvalid(e error) bool       { _, ok := e.(InvalidError); return ok }
func IsErrAuthorization(e error) bool { _, ok := e.(AuthorizationError); return ok }
func IsErrCapacity(e error) bool      { _, ok := e.(CapacityError); return ok }
func IsErrPrice(e error) bool         { _, ok := e.(PriceError); return ok }
func IsErrOverflow(e error) bool      { _, ok := e.(OverflowError); return ok }
func IsErrNotFound(e error) bool      { _, ok := e.(NotFoundError); return ok }
func IsErrExists(e error) bool        { _, ok := e.(ExistsError); return ok }
func IsErrProcess(e error) bool       { _, ok := e.(ProcessError); return ok }
