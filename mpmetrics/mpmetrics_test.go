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

package mpmetrics_test

import (
	"github.com/nabbar/mpmc/mpmetrics"
	"github.com/prometheus/client_golang/prometheus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Collector", func() {
	It("starts at a zero snapshot", func() {
		c := mpmetrics.New(nil)
		Expect(c.Snapshot()).To(Equal(mpmetrics.Snapshot{}))
	})

	It("reflects counter increments in its snapshot", func() {
		c := mpmetrics.New(nil)
		c.Sent.Add(3)
		c.Received.Inc()
		c.Ignored.Inc()
		c.Timeouts.Inc()
		c.LocalFaults.Inc()
		c.RemoteFaults.Inc()
		c.Dispatched.Inc()
		c.Dropped.Inc()

		snap := c.Snapshot()
		Expect(snap.Sent).To(Equal(uint64(3)))
		Expect(snap.Received).To(Equal(uint64(1)))
		Expect(snap.Ignored).To(Equal(uint64(1)))
		Expect(snap.Timeouts).To(Equal(uint64(1)))
		Expect(snap.LocalFaults).To(Equal(uint64(1)))
		Expect(snap.RemoteFaults).To(Equal(uint64(1)))
		Expect(snap.Dispatched).To(Equal(uint64(1)))
		Expect(snap.Dropped).To(Equal(uint64(1)))
	})

	It("yields a zero snapshot for a nil Collector", func() {
		var c *mpmetrics.Collector
		Expect(c.Snapshot()).To(Equal(mpmetrics.Snapshot{}))
	})

	It("registers its counters against a supplied registry", func() {
		reg := prometheus.NewRegistry()
		_ = mpmetrics.New(reg)

		families, err := reg.Gather()
		Expect(err).ToNot(HaveOccurred())
		Expect(families).To(HaveLen(8))
	})
})
