/*
 * MIT License
 *
 * Copyright (c) 2026 MPMC Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package pending implements the pending-request table, spec.md §4.D: one
// outstanding synchronous request per (destination, name), tracked from
// RequestOne's start to its return, with the completion signal delivered
// by whichever goroutine is running the receive loop.
//
// The source's intrusive linked list of stack-allocated waiters (spec.md
// §9, Design Notes) is replaced by a map keyed by (dst, name) to a handle
// whose reply slot the receiver can write into without knowing anything
// about the waiter's stack layout; the condition variable is replaced by a
// per-request single-shot channel close.
package pending

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nabbar/mpmc/mperr"
	"github.com/nabbar/mpmc/wire"
)

// Flag is a pending request's completion state.
type Flag int32

const (
	// Pending means no reply has arrived yet.
	Pending Flag = 0
	// Received means a REP reply was delivered.
	Received Flag = 1
	// Ignored means an IGN reply was delivered: the peer asked to be
	// treated as if it hadn't responded at all.
	Ignored Flag = -1
)

// entry is one outstanding request. id correlates this entry's log lines
// across RequestOne's caller and Deliver's receive-loop goroutine. done is
// closed exactly once, by whichever of Deliver/RequestOne's timeout path
// observes the race first.
type entry struct {
	id    string
	mu    sync.Mutex
	flag  Flag
	reply wire.Message
	done  chan struct{}
	once  sync.Once
}

func (e *entry) complete(flag Flag, reply wire.Message) {
	e.once.Do(func() {
		e.mu.Lock()
		e.flag = flag
		e.reply = reply
		e.mu.Unlock()
		close(e.done)
	})
}

// Table tracks outstanding requests keyed by (dst, name); at most one per
// key may exist at any instant (spec.md §3 uniqueness invariant).
type Table struct {
	mu sync.Mutex
	m  map[string]*entry
}

// New returns an empty Table.
func New() *Table {
	return &Table{m: make(map[string]*entry)}
}

func key(dst, name string) string { return dst + "\x00" + name }

// Sender is the subset of wire.Endpoint.Send RequestOne needs; accepting
// it as a function keeps this package free of a direct socket dependency.
type Sender func(dst string, m wire.Message) (wire.SendResult, error)

// Result is RequestOne's outcome: how many peers were meaningfully spoken
// to (nb_sent, decremented on an IGN reply) and how many real replies were
// collected.
type Result struct {
	ID          string
	NbSent      int
	NbReceived  int
	Replies     []wire.Message
	RemoteFault bool
	Ignored     bool
}

// RequestOne runs the full request/reply state machine of spec.md §4.D
// against a single destination:
//
//  1. build an entry with flag=Pending;
//  2. insert it under the table lock, failing with Duplicate if one
//     already exists for (dst, req.Name);
//  3. send the request; a local-fault removes the entry and fails, a
//     remote-fault removes the entry and returns success with zero
//     replies;
//  4. wait for a reply or deadline;
//  5. remove the entry;
//  6. classify: timeout, ignored (decrementing nb_sent) or received.
func (t *Table) RequestOne(ctx context.Context, dst string, req wire.Message, deadline time.Time, send Sender) (Result, error) {
	e := &entry{id: uuid.NewString(), done: make(chan struct{})}

	t.mu.Lock()
	k := key(dst, req.Name)
	if _, exists := t.m[k]; exists {
		t.mu.Unlock()
		return Result{}, mperr.Wrapf(mperr.Duplicate, "pending", "request already outstanding for %s/%s", dst, req.Name)
	}
	t.m[k] = e
	t.mu.Unlock()

	remove := func() {
		t.mu.Lock()
		delete(t.m, k)
		t.mu.Unlock()
	}

	result, sendErr := send(dst, req)
	switch result {
	case wire.SendLocalFault:
		remove()
		return Result{}, sendErr
	case wire.SendRemoteFault:
		remove()
		return Result{NbSent: 0, NbReceived: 0, RemoteFault: true}, nil
	}

	nbSent := 1

	var ctxDone <-chan struct{}
	if ctx != nil {
		ctxDone = ctx.Done()
	}

	select {
	case <-e.done:
	case <-time.After(time.Until(deadline)):
		e.complete(Pending, wire.Message{}) // no-op if already completed by Deliver
	case <-ctxDone:
		e.complete(Pending, wire.Message{})
	}

	remove()

	e.mu.Lock()
	flag, reply := e.flag, e.reply
	e.mu.Unlock()

	switch flag {
	case Pending:
		return Result{ID: e.id}, mperr.Wrapf(mperr.Timeout, "pending", "no reply from %s for %s", dst, req.Name)
	case Ignored:
		nbSent--
		return Result{ID: e.id, NbSent: nbSent, NbReceived: 0, Ignored: true}, nil
	default: // Received
		return Result{ID: e.id, NbSent: nbSent, NbReceived: 1, Replies: []wire.Message{reply}}, nil
	}
}

// Deliver routes an inbound REP/IGN to the matching (peer, name) entry, if
// any. It returns the matched entry's correlation id and whether a match
// was found at all; an unmatched reply is the caller's cue to log "no
// matching request" and drop it (spec.md §4.D).
func (t *Table) Deliver(peer string, msg wire.Message) (string, bool) {
	t.mu.Lock()
	e, ok := t.m[key(peer, msg.Name)]
	t.mu.Unlock()
	if !ok {
		return "", false
	}

	flag := Received
	if msg.Tag == wire.IGN {
		flag = Ignored
	}
	e.complete(flag, msg)
	return e.id, true
}

// Len reports the number of outstanding entries; used by tests asserting
// the table is empty after a timeout or a completed request.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
