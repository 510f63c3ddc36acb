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

package mpmc

import (
	"context"

	"github.com/nabbar/mpmc/mplog"
	"github.com/nabbar/mpmc/mpmetrics"
	"github.com/nabbar/mpmc/wire"
)

// receiveLoop is the single dedicated task spawned by ChannelInit. It
// never exits on its own; decode errors are logged and the loop continues
// (spec.md §4.E). It only stops when ctx is cancelled, which Close does.
func (c *Channel) receiveLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rcv, err := c.ep.Recv()
		if err != nil {
			if c.closed.Load() {
				return nil
			}
			c.log.Warn("decode error, dropping datagram", mplog.F("err", err))
			c.bump(func(m *mpmetrics.Collector) { m.Dropped.Inc() })
			continue
		}

		c.dispatch(rcv)
	}
}

// dispatch classifies one decoded datagram and routes it to the pending
// table (replies) or the handler registry (requests/messages), per
// spec.md §4.E. It must not, and does not, hold the handler registry lock
// while invoking a handler.
func (c *Channel) dispatch(rcv wire.Received) {
	msg, peer := rcv.Message, rcv.Peer

	switch msg.Tag {
	case wire.REP, wire.IGN:
		id, ok := c.pend.Deliver(peer, msg)
		if !ok {
			c.log.Warn("reply matches no pending request, dropping",
				mplog.F("peer", peer), mplog.F("name", msg.Name), mplog.F("tag", msg.Tag.String()))
			c.bump(func(m *mpmetrics.Collector) { m.Dropped.Inc() })
			return
		}
		c.log.Debug("reply delivered to pending request",
			mplog.F("peer", peer), mplog.F("name", msg.Name), mplog.F("request_id", id))
		return

	case wire.MSG, wire.REQ:
		fn, ok := c.reg.Lookup(msg.Name)
		if ok {
			c.bump(func(m *mpmetrics.Collector) { m.Dispatched.Inc() })
			if err := fn(msg, peer); err != nil {
				c.log.Warn("handler returned error", mplog.F("name", msg.Name), mplog.F("peer", peer), mplog.F("err", err))
			}
			return
		}

		if msg.Tag == wire.REQ && !c.cfg.InitComplete() {
			c.replyIgnore(msg.Name, peer)
			return
		}

		c.log.Warn("no such action", mplog.F("name", msg.Name), mplog.F("peer", peer), mplog.F("tag", msg.Tag.String()))
		c.bump(func(m *mpmetrics.Collector) { m.Dropped.Inc() })
	}
}

// replyIgnore synthesises the empty IGN reply that lets a not-yet-ready
// secondary politely decline a request (spec.md §4.E).
func (c *Channel) replyIgnore(name, peer string) {
	reply := wire.Message{Tag: wire.IGN, Name: name}
	if _, err := c.ep.Send(peer, reply); err != nil {
		c.log.Warn("failed to send ignore reply", mplog.F("peer", peer), mplog.F("name", name), mplog.F("err", err))
	}
}
