// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2026 OpenPeg Contributors
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - success-only event queues
//
// events are emitted after a call commits, never before; a failed
// call leaves no trace on any queue
package messagebus

import (
	"reflect"
	"strconv"

	"github.com/openpeg/pegd/counter"
)

// Message - item that can be sent
type Message struct {
	Command    string   // type of packed data
	Parameters [][]byte // array of parameters
}

// Queue - a 1:1 queue
type Queue struct {
	c       chan Message
	size    int
	dropped counter.Counter
}

// the named queues
//
// any item with a "queue" tag is created automatically by init
type busses struct {
	Events    *Queue `queue:"1000"` // mint/burn/cap/redemption/price notifications
	TestQueue *Queue `queue:"50"`   // for testing use
}

// Bus - all available queues
var Bus busses

// create all queues
func init() {
	t := reflect.TypeOf(Bus)
	v := reflect.ValueOf(&Bus).Elem()
	for i := 0; i < t.NumField(); i += 1 {
		sizeTag := t.Field(i).Tag.Get("queue")
		if "" == sizeTag {
			continue
		}
		size, err := strconv.Atoi(sizeTag)
		if nil != err || size < 1 {
			panic("invalid queue size: " + sizeTag)
		}
		q := &Queue{
			c:    make(chan Message, size),
			size: size,
		}
		v.Field(i).Set(reflect.ValueOf(q))
	}
}

// Send - queue a message, dropping it if the queue is full
//
// monitoring consumers are advisory only so a slow consumer must
// never block the accounting path
func (q *Queue) Send(command string, parameters ...[]byte) {
	m := Message{
		Command:    command,
		Parameters: parameters,
	}
	select {
	case q.c <- m:
	default:
		q.dropped.Increment()
	}
}

// Chan - channel to read from the queue
func (q *Queue) Chan() <-chan Message {
	return q.c
}

// Dropped - number of messages lost to a full queue
func (q *Queue) Dropped() uint64 {
	return q.dropped.Uint64()
}

// Drain - discard any queued messages
func (q *Queue) Drain() {
	for {
		select {
		case <-q.c:
		default:
			return
		}
	}
}
