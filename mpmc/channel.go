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
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nabbar/mpmc/handler"
	"github.com/nabbar/mpmc/mpconf"
	"github.com/nabbar/mpmc/mplog"
	"github.com/nabbar/mpmc/mpmetrics"
	"github.com/nabbar/mpmc/pending"
	"github.com/nabbar/mpmc/peerdir"
	"github.com/nabbar/mpmc/role"
	"github.com/nabbar/mpmc/wire"
)

// maxFanout bounds how many peers are addressed concurrently during a
// broadcast, grounded on the semaphore.Weighted-bounded fan-out pattern
// used for supervisor state exchange in the corpus's container runtime
// tooling.
const maxFanout = 16

// Channel is the bound socket, the peer directory, the handler registry,
// the pending-request table, and the spawned receiver, all created once by
// ChannelInit and kept until Close stops the receiver and closes the socket.
type Channel struct {
	cfg    *mpconf.Config
	role   role.Role
	ep     *wire.Endpoint
	dir    *peerdir.Directory
	reg    *handler.Registry
	pend   *pending.Table
	log    mplog.Logger
	metric *mpmetrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	closed atomic.Bool
	once   sync.Once
}

// Options bundles ChannelInit's optional collaborators; the zero value
// uses mplog.Default() and a nil (disabled) metrics collector.
type Options struct {
	Logger  mplog.Logger
	Metrics *mpmetrics.Collector
}

// ChannelInit is the one-shot bring-up described in spec.md §4.F: it
// builds the directory/filter from cfg, acquires the directory lock,
// cleans stale peer sockets if running as primary, binds the local
// socket, spawns the receive loop, and releases the directory lock. Any
// failed step rolls back everything done so far.
func ChannelInit(ctx context.Context, cfg *mpconf.Config, oracle role.Oracle, opt Options) (*Channel, error) {
	if opt.Logger == nil {
		opt.Logger = mplog.Default()
	}

	if err := os.MkdirAll(cfg.SocketDir, 0o755); err != nil {
		return nil, err
	}

	dir := peerdir.New(cfg.SocketDir, cfg.Prefix)
	unlock, err := dir.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock.Unlock()

	r := oracle.Current()

	if r == role.Primary {
		if err := dir.CleanStale(); err != nil {
			return nil, err
		}
	}

	bindPath := dir.SecondaryPath()
	if r == role.Primary {
		bindPath = dir.PrimaryPath()
	}

	ep, err := wire.Bind(bindPath)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(cctx)

	c := &Channel{
		cfg:    cfg,
		role:   r,
		ep:     ep,
		dir:    dir,
		reg:    handler.New(),
		pend:   pending.New(),
		log:    opt.Logger,
		metric: opt.Metrics,
		ctx:    cctx,
		cancel: cancel,
		group:  g,
	}

	g.Go(func() error {
		return c.receiveLoop(gctx)
	})

	c.log.Info("channel initialised", mplog.F("role", r.String()), mplog.F("bind", bindPath))
	return c, nil
}

// Role reports whether this channel was initialised as primary or secondary.
func (c *Channel) Role() role.Role { return c.role }

// LocalPath is this channel's own bound socket path.
func (c *Channel) LocalPath() string { return c.ep.Path() }

// Metrics returns the wired metrics collector, or nil if none was supplied.
func (c *Channel) Metrics() *mpmetrics.Collector { return c.metric }

// Close stops the receive loop and releases the bound socket. It does not
// unlink the socket file (spec.md §6 leaves that to orderly shutdown,
// optional).
func (c *Channel) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		c.cancel()
		err = c.ep.Close()
		_ = c.group.Wait()
	})
	return err
}

func (c *Channel) bump(f func(*mpmetrics.Collector)) {
	if c.metric != nil {
		f(c.metric)
	}
}
