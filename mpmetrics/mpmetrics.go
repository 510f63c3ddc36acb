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

// Package mpmetrics wires Prometheus counters into the channel's state
// transitions: sent/received/ignored replies, timeouts, local and remote
// faults, and dispatched/dropped inbound datagrams. Wiring is optional —
// mpmc.Channel works with a nil Collector — but every component that can
// drive a counter does so when one is supplied.
package mpmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Collector holds the channel's counters, registered once against a
// prometheus.Registerer.
type Collector struct {
	Sent         prometheus.Counter
	Received     prometheus.Counter
	Ignored      prometheus.Counter
	Timeouts     prometheus.Counter
	LocalFaults  prometheus.Counter
	RemoteFaults prometheus.Counter
	Dispatched   prometheus.Counter
	Dropped      prometheus.Counter
}

// New creates a Collector and registers its counters against reg. Passing
// nil uses prometheus.NewRegistry() (isolated, suitable for tests).
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		Sent:         counter(reg, "mpmc_requests_sent_total", "Requests where a peer was addressed."),
		Received:     counter(reg, "mpmc_replies_received_total", "Replies (REP) received for outstanding requests."),
		Ignored:      counter(reg, "mpmc_replies_ignored_total", "Replies (IGN) received for outstanding requests."),
		Timeouts:     counter(reg, "mpmc_requests_timeout_total", "Requests whose deadline elapsed with no reply."),
		LocalFaults:  counter(reg, "mpmc_local_faults_total", "Send operations that failed locally."),
		RemoteFaults: counter(reg, "mpmc_remote_faults_total", "Peers that refused a datagram or had a full queue."),
		Dispatched:   counter(reg, "mpmc_datagrams_dispatched_total", "Inbound MSG/REQ datagrams routed to a handler."),
		Dropped:      counter(reg, "mpmc_datagrams_dropped_total", "Inbound datagrams dropped: decode error, unmatched reply, or no handler."),
	}
	return c
}

func counter(reg prometheus.Registerer, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	reg.MustRegister(c)
	return c
}

// Snapshot is a point-in-time read of every counter, exposed for tests.
type Snapshot struct {
	Sent, Received, Ignored, Timeouts              uint64
	LocalFaults, RemoteFaults, Dispatched, Dropped uint64
}

// Snapshot reads the current counter values. Nil-safe: a nil Collector
// yields a zero Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		Sent:         readCounter(c.Sent),
		Received:     readCounter(c.Received),
		Ignored:      readCounter(c.Ignored),
		Timeouts:     readCounter(c.Timeouts),
		LocalFaults:  readCounter(c.LocalFaults),
		RemoteFaults: readCounter(c.RemoteFaults),
		Dispatched:   readCounter(c.Dispatched),
		Dropped:      readCounter(c.Dropped),
	}
}

func readCounter(c prometheus.Counter) uint64 {
	if c == nil {
		return 0
	}
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}
