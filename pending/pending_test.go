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

package pending_test

import (
	"context"
	"sync"
	"time"

	"github.com/nabbar/mpmc/mperr"
	"github.com/nabbar/mpmc/pending"
	"github.com/nabbar/mpmc/wire"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var okSend pending.Sender = func(string, wire.Message) (wire.SendResult, error) {
	return wire.SendOK, nil
}

var _ = Describe("Table.RequestOne", func() {
	var tbl *pending.Table

	BeforeEach(func() {
		tbl = pending.New()
	})

	It("times out with an empty table afterwards when nothing replies", func() {
		deadline := time.Now().Add(30 * time.Millisecond)
		res, err := tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, deadline, okSend)

		Expect(err).To(HaveOccurred())
		Expect(mperr.Is(err, mperr.Timeout)).To(BeTrue())
		Expect(res.NbSent).To(Equal(0))
		Expect(res.NbReceived).To(Equal(0))
		Expect(res.Replies).To(BeEmpty())
		Expect(tbl.Len()).To(Equal(0))
	})

	It("rejects a second concurrent request for the same (dst, name)", func() {
		deadline := time.Now().Add(200 * time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, deadline, okSend)
		}()

		Eventually(tbl.Len).Should(Equal(1))

		_, err := tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, deadline, okSend)
		Expect(err).To(HaveOccurred())
		Expect(mperr.Is(err, mperr.Duplicate)).To(BeTrue())

		wg.Wait()
	})

	It("classifies a matching REP as received", func() {
		deadline := time.Now().Add(time.Second)

		var res pending.Result
		var err error
		done := make(chan struct{})
		go func() {
			res, err = tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, deadline, okSend)
			close(done)
		}()

		Eventually(tbl.Len).Should(Equal(1))
		id, delivered := tbl.Deliver("peerA", wire.Message{Tag: wire.REP, Name: "ping", Param: []byte("pong")})
		Expect(delivered).To(BeTrue())
		Expect(id).ToNot(BeEmpty())

		<-done
		Expect(err).ToNot(HaveOccurred())
		Expect(res.ID).To(Equal(id))
		Expect(res.NbSent).To(Equal(1))
		Expect(res.NbReceived).To(Equal(1))
		Expect(res.Replies).To(HaveLen(1))
		Expect(res.Replies[0].Param).To(Equal([]byte("pong")))
	})

	It("decrements nb_sent and reports Ignored on a matching IGN", func() {
		deadline := time.Now().Add(time.Second)

		var res pending.Result
		var err error
		done := make(chan struct{})
		go func() {
			res, err = tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, deadline, okSend)
			close(done)
		}()

		Eventually(tbl.Len).Should(Equal(1))
		_, _ = tbl.Deliver("peerA", wire.Message{Tag: wire.IGN, Name: "ping"})

		<-done
		Expect(err).ToNot(HaveOccurred())
		Expect(res.NbSent).To(Equal(0))
		Expect(res.NbReceived).To(Equal(0))
		Expect(res.Ignored).To(BeTrue())
	})

	It("reports no match and leaves the table untouched for an unrelated reply", func() {
		_, delivered := tbl.Deliver("peerA", wire.Message{Tag: wire.REP, Name: "nope"})
		Expect(delivered).To(BeFalse())
		Expect(tbl.Len()).To(Equal(0))
	})

	It("is safe against a late Deliver arriving after a timeout already fired", func() {
		deadline := time.Now().Add(20 * time.Millisecond)
		res, err := tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, deadline, okSend)
		Expect(err).To(HaveOccurred())
		Expect(mperr.Is(err, mperr.Timeout)).To(BeTrue())
		Expect(res.NbSent).To(Equal(0))
		Expect(res.NbReceived).To(Equal(0))

		// The entry is already gone; a stray reply simply finds no match.
		_, delivered := tbl.Deliver("peerA", wire.Message{Tag: wire.REP, Name: "ping"})
		Expect(delivered).To(BeFalse())
	})

	It("removes the entry and returns no error on a remote fault", func() {
		var remoteFaultSend pending.Sender = func(string, wire.Message) (wire.SendResult, error) {
			return wire.SendRemoteFault, mperr.New(mperr.RemoteFault, "test", "peer dead")
		}

		res, err := tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, time.Now().Add(time.Second), remoteFaultSend)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.RemoteFault).To(BeTrue())
		Expect(res.NbSent).To(Equal(0))
		Expect(tbl.Len()).To(Equal(0))
	})

	It("removes the entry and returns an error on a local fault", func() {
		var localFaultSend pending.Sender = func(string, wire.Message) (wire.SendResult, error) {
			return wire.SendLocalFault, mperr.New(mperr.LocalFault, "test", "encode failed")
		}

		_, err := tbl.RequestOne(context.Background(), "peerA", wire.Message{Name: "ping"}, time.Now().Add(time.Second), localFaultSend)
		Expect(err).To(HaveOccurred())
		Expect(mperr.Is(err, mperr.LocalFault)).To(BeTrue())
		Expect(tbl.Len()).To(Equal(0))
	})

	It("honors context cancellation as an early timeout", func() {
		ctx, cancel := context.WithCancel(context.Background())

		var err error
		done := make(chan struct{})
		go func() {
			_, err = tbl.RequestOne(ctx, "peerA", wire.Message{Name: "ping"}, time.Now().Add(time.Minute), okSend)
			close(done)
		}()

		Eventually(tbl.Len).Should(Equal(1))
		cancel()

		<-done
		Expect(err).To(HaveOccurred())
		Expect(tbl.Len()).To(Equal(0))
	})
})
