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
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nabbar/mpmc/handler"
	"github.com/nabbar/mpmc/mperr"
	"github.com/nabbar/mpmc/mplog"
	"github.com/nabbar/mpmc/mpmetrics"
	"github.com/nabbar/mpmc/role"
	"github.com/nabbar/mpmc/wire"
)

// CheckInput validates a message per spec.md §4.F: non-null (zero-valued
// is rejected via an empty name), a valid bounded name, a param within
// MaxParamLen, and an FD count within MaxFDNum.
func CheckInput(msg wire.Message) error {
	if len(msg.Name) == 0 {
		return mperr.New(mperr.Invalid, "mpmc", "empty message name")
	}
	if len(msg.Name) >= wire.MaxNameLen {
		return mperr.Wrapf(mperr.TooBig, "mpmc", "name length %d >= %d", len(msg.Name), wire.MaxNameLen)
	}
	if len(msg.Param) > wire.MaxParamLen {
		return mperr.Wrapf(mperr.TooBig, "mpmc", "param length %d > %d", len(msg.Param), wire.MaxParamLen)
	}
	if len(msg.FDs) > wire.MaxFDNum {
		return mperr.Wrapf(mperr.TooBig, "mpmc", "fd count %d > %d", len(msg.FDs), wire.MaxFDNum)
	}
	return nil
}

// Register installs a handler under name (spec.md §4.C via §4.F).
func (c *Channel) Register(name string, fn handler.Func) error {
	return c.reg.Register(name, fn)
}

// Unregister removes a handler (spec.md §4.C via §4.F).
func (c *Channel) Unregister(name string) {
	c.reg.Unregister(name)
}

// Send is fire-and-forget (tag MSG): a secondary with no explicit peer
// targets the primary; a primary with no explicit peer broadcasts under
// the directory lock. Local faults abort and are returned; remote faults
// are logged per peer and do not fail the call (spec.md §4.F, §7).
func (c *Channel) Send(ctx context.Context, msg wire.Message, dst ...string) error {
	if err := CheckInput(msg); err != nil {
		return err
	}
	msg.Tag = wire.MSG

	if len(dst) > 0 {
		return c.sendOne(dst[0], msg)
	}

	if c.role == role.Secondary {
		return c.sendOne(c.dir.PrimaryPath(), msg)
	}

	return c.broadcastSend(ctx, msg)
}

func (c *Channel) sendOne(dst string, msg wire.Message) error {
	res, err := c.ep.Send(dst, msg)
	switch res {
	case wire.SendLocalFault:
		c.bump(func(m *mpmetrics.Collector) { m.LocalFaults.Inc() })
		return err
	case wire.SendRemoteFault:
		c.bump(func(m *mpmetrics.Collector) { m.RemoteFaults.Inc() })
		c.log.Warn("remote fault, continuing", mplog.F("peer", dst), mplog.F("err", err))
		return nil
	default:
		return nil
	}
}

// broadcastSend fans msg out to every currently known peer while holding
// the directory lock for the whole operation (spec.md invariant 5). The
// aggregate result is a failure if any peer send produced a local fault;
// remote faults never propagate (spec.md §9, Open Question 3).
func (c *Channel) broadcastSend(ctx context.Context, msg wire.Message) error {
	unlock, err := c.dir.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock.Unlock()

	peers, err := c.dir.Peers()
	if err != nil {
		return err
	}

	errs := make([]error, len(peers))
	sem := semaphore.NewWeighted(maxFanout)
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range peers {
		i, p := i, p
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			errs[i] = c.sendOne(p, msg)
			return nil // collect every peer's error instead of aborting the group
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Aggregate is Request's result: how many peers were meaningfully spoken
// to (nb_sent), how many replied for real (nb_received), and their
// messages.
type Aggregate struct {
	NbSent     int
	NbReceived int
	Msgs       []wire.Message
}

// Request converts timeout to an absolute deadline and runs the
// request/reply state machine of spec.md §4.D against every relevant
// peer: a secondary targets the primary only; a primary broadcasts under
// the directory lock and aggregates each peer's RequestOne outcome. The
// overall result is a failure if any RequestOne call fails, but every
// peer is still attempted (spec.md §4.F).
func (c *Channel) Request(ctx context.Context, msg wire.Message, timeout time.Duration) (Aggregate, error) {
	if err := CheckInput(msg); err != nil {
		return Aggregate{}, err
	}
	msg.Tag = wire.REQ
	deadline := time.Now().Add(timeout)

	if c.role == role.Secondary {
		return c.requestOne(ctx, c.dir.PrimaryPath(), msg, deadline)
	}
	return c.broadcastRequest(ctx, msg, deadline)
}

func (c *Channel) requestOne(ctx context.Context, dst string, msg wire.Message, deadline time.Time) (Aggregate, error) {
	res, err := c.pend.RequestOne(ctx, dst, msg, deadline, func(d string, m wire.Message) (wire.SendResult, error) {
		r, e := c.ep.Send(d, m)
		return r, e
	})
	if err != nil {
		switch {
		case mperr.Is(err, mperr.Timeout):
			c.bump(func(m *mpmetrics.Collector) { m.Timeouts.Inc() })
		case mperr.Is(err, mperr.LocalFault):
			c.bump(func(m *mpmetrics.Collector) { m.LocalFaults.Inc() })
		}
		return Aggregate{}, err
	}

	c.bump(func(m *mpmetrics.Collector) {
		if res.NbSent > 0 {
			m.Sent.Add(float64(res.NbSent))
		}
		switch {
		case res.NbReceived > 0:
			m.Received.Inc()
		case res.Ignored:
			m.Ignored.Inc()
		case res.RemoteFault:
			m.RemoteFaults.Inc()
		}
	})

	return Aggregate{NbSent: res.NbSent, NbReceived: res.NbReceived, Msgs: res.Replies}, nil
}

// broadcastRequest issues requestOne against every known peer concurrently
// while the directory lock is held, matching broadcastSend's fan-out
// shape. It aggregates nb_sent/nb_received across peers and fails overall
// if any individual RequestOne failed, though every peer is still
// attempted (spec.md §4.F).
func (c *Channel) broadcastRequest(ctx context.Context, msg wire.Message, deadline time.Time) (Aggregate, error) {
	unlock, err := c.dir.Lock(ctx)
	if err != nil {
		return Aggregate{}, err
	}
	defer unlock.Unlock()

	peers, err := c.dir.Peers()
	if err != nil {
		return Aggregate{}, err
	}

	type outcome struct {
		agg Aggregate
		err error
	}

	outcomes := make([]outcome, len(peers))
	sem := semaphore.NewWeighted(maxFanout)
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range peers {
		i, p := i, p
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			agg, err := c.requestOne(gctx, p, msg, deadline)
			outcomes[i] = outcome{agg: agg, err: err}
			return nil // collect every peer's error instead of aborting the group
		})
	}
	_ = g.Wait()

	var total Aggregate
	var failed error
	for _, o := range outcomes {
		total.NbSent += o.agg.NbSent
		total.NbReceived += o.agg.NbReceived
		total.Msgs = append(total.Msgs, o.agg.Msgs...)
		if o.err != nil && failed == nil {
			failed = o.err
		}
	}
	return total, failed
}

// Reply sends a REP to peer, which must be a non-empty socket path
// (spec.md §4.F).
func (c *Channel) Reply(msg wire.Message, peer string) error {
	if peer == "" {
		return mperr.New(mperr.Invalid, "mpmc", "nil peer for reply")
	}
	if err := CheckInput(msg); err != nil {
		return err
	}
	msg.Tag = wire.REP
	return c.sendOne(peer, msg)
}
