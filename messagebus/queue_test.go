// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus_test

import (
	"testing"

	"github.com/openpeg/pegd/messagebus"
)

func TestQueue(t *testing.T) {

	messagebus.Bus.TestQueue.Drain()

	items := []messagebus.Message{
		{
			Command:    "c1",
			Parameters: nil,
		},
		{
			Command:    "c2",
			Parameters: nil,
		},
		{
			Command:    "c3",
			Parameters: [][]byte{[]byte("p1"), []byte("p2")},
		},
	}

	for _, item := range items {
		messagebus.Bus.TestQueue.Send(item.Command, item.Parameters...)
	}

	queue := messagebus.Bus.TestQueue.Chan()
	for _, item := range items {
		received := <-queue
		if received.Command != item.Command {
			t.Errorf("actual: %q  expected: %q", received.Command, item.Command)
		}
		if len(received.Parameters) != len(item.Parameters) {
			t.Errorf("actual: %d parameters  expected: %d", len(received.Parameters), len(item.Parameters))
		}
	}
}

// a full queue must drop rather than block the sender
func TestOverflow(t *testing.T) {

	messagebus.Bus.TestQueue.Drain()
	before := messagebus.Bus.TestQueue.Dropped()

	// the test queue holds 50 items
	for i := 0; i < 60; i += 1 {
		messagebus.Bus.TestQueue.Send("overflow")
	}

	dropped := messagebus.Bus.TestQueue.Dropped() - before
	if 10 != dropped {
		t.Errorf("dropped: %d  expected: 10", dropped)
	}

	messagebus.Bus.TestQueue.Drain()
}
