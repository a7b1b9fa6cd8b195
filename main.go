// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/listener"
	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/background"
	"github.com/openpeg/pegd/bridge"
	"github.com/openpeg/pegd/configuration"
	"github.com/openpeg/pegd/fault"
	"github.com/openpeg/pegd/ledger"
	"github.com/openpeg/pegd/mode"
	"github.com/openpeg/pegd/oracle"
	"github.com/openpeg/pegd/redemption"
	"github.com/openpeg/pegd/rpc"
	"github.com/openpeg/pegd/storage"
	"github.com/openpeg/pegd/token"
	"github.com/openpeg/pegd/vault"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

type serverChannel struct {
	// initial values
	limit               int
	addresses           []string
	certificateFileName string
	keyFileName         string
	callback            listener.Callback
	argument            interface{}

	// filled in later
	tlsConfiguration *tls.Config
	limiter          *listener.Limiter
	listener         *listener.MultiListener
}

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set the initial system mode - before any background tasks are started
	err = mode.Initialise(theConfiguration.Chain)
	if nil != err {
		log.Criticalf("mode initialise error: %s", err)
		exitwithstatus.Message("mode initialise error: %s", err)
	}
	defer mode.Finalise()

	// general info
	log.Infof("test mode: %v", mode.IsTesting())
	log.Infof("database: %q", theConfiguration.Database)
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)

	// start the data storage
	log.Info("initialise storage")
	err = storage.Initialise(theConfiguration.Database.Name)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	// reload the issuance ledger - depends on storage
	log.Info("initialise ledger")
	err = ledger.Initialise()
	if nil != err {
		log.Criticalf("ledger initialise error: %s", err)
		exitwithstatus.Message("ledger initialise error: %s", err)
	}
	defer ledger.Finalise()

	// price feed
	log.Info("initialise oracle")
	limits := oracleLimits(theConfiguration.Oracle)
	source, err := priceSource(theConfiguration.Oracle)
	if nil != err {
		log.Criticalf("price source error: %s", err)
		exitwithstatus.Message("price source error: %s", err)
	}
	cacheExpiry := time.Duration(theConfiguration.Oracle.CacheExpirySeconds) * time.Second
	err = oracle.Initialise(source, cacheExpiry)
	if nil != err {
		log.Criticalf("oracle initialise error: %s", err)
		exitwithstatus.Message("oracle initialise error: %s", err)
	}
	defer oracle.Finalise()

	// vault registry - depends on storage and oracle
	log.Info("initialise vault")
	err = vault.Initialise(nil, limits)
	if nil != err {
		log.Criticalf("vault initialise error: %s", err)
		exitwithstatus.Message("vault initialise error: %s", err)
	}
	defer vault.Finalise()

	// register any configured vaults; a vault that survived a restart
	// is already in the registry
	for _, v := range theConfiguration.Vaults {
		err := vault.Register(v.Id, v.Asset, uint64(v.Cap), uint64(v.Precision), uint64(v.MinimumDeposit))
		if nil == err {
			log.Infof("registered vault: %s  asset: %s", v.Id, v.Asset)
		} else if fault.IsErrExists(err) {
			log.Debugf("vault already registered: %s", v.Id)
		} else {
			log.Criticalf("vault: %s register error: %s", v.Id, err)
			exitwithstatus.Message("vault: %s register error: %s", v.Id, err)
		}
	}

	// the token needs the registry as its mint authority
	log.Info("initialise token")
	err = token.Initialise(vault.Authority{})
	if nil != err {
		log.Criticalf("token initialise error: %s", err)
		exitwithstatus.Message("token initialise error: %s", err)
	}
	defer token.Finalise()

	log.Info("initialise bridge")
	err = bridge.Initialise()
	if nil != err {
		log.Criticalf("bridge initialise error: %s", err)
		exitwithstatus.Message("bridge initialise error: %s", err)
	}
	defer bridge.Finalise()

	log.Info("initialise redemption")
	err = redemption.Initialise()
	if nil != err {
		log.Criticalf("redemption initialise error: %s", err)
		exitwithstatus.Message("redemption initialise error: %s", err)
	}
	defer redemption.Finalise()

	// drain and log domain events
	eventLog := logger.New("events")
	eventHandles := background.Start(background.Processes{eventLoop}, eventLog)
	defer eventHandles.Stop()

	// accounts allowed to sign privileged operations
	administrators, err := rpc.NewAdministratorList(theConfiguration.Administrators)
	if nil != err {
		log.Criticalf("administrators error: %s", err)
		exitwithstatus.Message("administrators error: %s", err)
	}
	if 0 == len(administrators) {
		log.Warn("no administrators configured; privileged operations are disabled")
	}

	rpcLog := logger.New("rpc-server")
	start := time.Now()

	servers := map[string]*serverChannel{
		"rpc": {
			limit:               theConfiguration.ClientRPC.MaximumConnections,
			addresses:           theConfiguration.ClientRPC.Listen,
			certificateFileName: theConfiguration.ClientRPC.Certificate,
			keyFileName:         theConfiguration.ClientRPC.PrivateKey,
			callback:            rpc.Callback,
			argument: &rpc.ServerArgument{
				Log:    rpcLog,
				Server: rpc.CreateServer(rpcLog, version, start, administrators),
			},
		},
	}

	// validate server parameters
	for name, server := range servers {
		log.Infof("validate: %s", name)
		fingerprint, ok := verifyListen(log, name, server)
		if !ok {
			log.Criticalf("invalid %s parameters", name)
			exitwithstatus.Exit(1)
		}
		if 0 == server.limit {
			continue
		}
		log.Infof("multi listener for: %s", name)
		ml, err := listener.NewMultiListener(name, server.addresses, server.tlsConfiguration, server.limiter, server.callback)
		if nil != err {
			log.Criticalf("invalid %s listen addresses", name)
			exitwithstatus.Exit(1)
		}
		server.listener = ml
		log.Infof("%s fingerprint: %x", name, *fingerprint)
	}

	// now start the listeners
	serversStarted := 0
	for name, server := range servers {
		if nil != server.listener {
			log.Infof("starting server: %s", name)
			server.listener.Start(server.argument)
			defer server.listener.Stop()
			serversStarted += 1
		}
	}
	if 0 == serversStarted {
		log.Critical("no servers started")
		exitwithstatus.Exit(1)
	}

	// open for business
	mode.Set(mode.Normal)

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	mode.Set(mode.Stopped)
}
