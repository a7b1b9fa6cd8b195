// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/logger"

	"github.com/openpeg/pegd/messagebus"
)

// drain the event queue and log each notification
//
// nothing subscribes to these in-process, but leaving the queue
// undrained would eventually drop messages
func eventLoop(args interface{}, shutdown <-chan struct{}, done chan<- struct{}) {

	log := args.(*logger.L)
	log.Info("starting…")

	queue := messagebus.Bus.Events.Chan()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event := <-queue:
			log.Infof("event: %s  parameters: %x", event.Command, event.Parameters)
		}
	}

	log.Info("stopped")
	close(done)
}
