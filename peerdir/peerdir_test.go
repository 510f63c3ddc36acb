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

package peerdir_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/nabbar/mpmc/peerdir"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Directory", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "mpmc-peerdir-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	It("builds distinct secondary paths on every call", func() {
		d := peerdir.New(dir, "mpmc")
		a := d.SecondaryPath()
		b := d.SecondaryPath()
		Expect(a).ToNot(Equal(b))
		Expect(filepath.Dir(a)).To(Equal(dir))
	})

	It("lists only files matching the peer filter", func() {
		d := peerdir.New(dir, "mpmc")

		Expect(os.WriteFile(filepath.Join(dir, "mpmc"), nil, 0o644)).To(Succeed())         // the primary itself
		Expect(os.WriteFile(filepath.Join(dir, "mpmc_1_a"), nil, 0o644)).To(Succeed())      // a peer
		Expect(os.WriteFile(filepath.Join(dir, "mpmc_2_b"), nil, 0o644)).To(Succeed())      // another peer
		Expect(os.WriteFile(filepath.Join(dir, "unrelated"), nil, 0o644)).To(Succeed())     // not a peer

		peers, err := d.Peers()
		Expect(err).ToNot(HaveOccurred())
		Expect(peers).To(HaveLen(2))
		for _, p := range peers {
			Expect(filepath.Base(p)).To(HavePrefix("mpmc_"))
		}
	})

	It("removes every peer socket on CleanStale but leaves the primary alone", func() {
		d := peerdir.New(dir, "mpmc")
		Expect(os.WriteFile(filepath.Join(dir, "mpmc"), nil, 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "mpmc_1_a"), nil, 0o644)).To(Succeed())

		Expect(d.CleanStale()).To(Succeed())

		_, err := os.Stat(filepath.Join(dir, "mpmc"))
		Expect(err).ToNot(HaveOccurred())

		_, err = os.Stat(filepath.Join(dir, "mpmc_1_a"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("acquires and releases the directory lock", func() {
		d := peerdir.New(dir, "mpmc")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		unlock, err := d.Lock(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(unlock.Unlock()).To(Succeed())
	})

	It("blocks a second lock attempt until the first is released", func() {
		d1 := peerdir.New(dir, "mpmc")
		d2 := peerdir.New(dir, "mpmc")

		ctx := context.Background()
		unlock1, err := d1.Lock(ctx)
		Expect(err).ToNot(HaveOccurred())

		acquired := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel2()
			unlock2, err := d2.Lock(ctx2)
			Expect(err).ToNot(HaveOccurred())
			_ = unlock2.Unlock()
			close(acquired)
		}()

		Consistently(acquired, 100*time.Millisecond).ShouldNot(BeClosed())
		Expect(unlock1.Unlock()).To(Succeed())
		Eventually(acquired, 2*time.Second).Should(BeClosed())
	})

	It("round-trips pid and counter through SecondaryPath/ParsePeerID", func() {
		d := peerdir.New(dir, "mpmc")
		path := d.SecondaryPath()

		pid, counter, ok := peerdir.ParsePeerID(path, "mpmc")
		Expect(ok).To(BeTrue())
		Expect(pid).To(Equal(os.Getpid()))
		Expect(counter).To(BeNumerically(">", uint64(0)))
	})

	It("rejects a path with the wrong prefix", func() {
		_, _, ok := peerdir.ParsePeerID(filepath.Join(dir, "other_1_a"), "mpmc")
		Expect(ok).To(BeFalse())
	})
})
