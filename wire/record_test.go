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

package wire_test

import (
	"strings"

	"github.com/nabbar/mpmc/wire"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Encode/Decode", func() {
	It("round-trips a simple message", func() {
		m := wire.Message{Tag: wire.MSG, Name: "echo", Param: []byte("hello")}

		buf, err := wire.Encode(m)
		Expect(err).ToNot(HaveOccurred())
		Expect(buf).To(HaveLen(wire.RecordSize()))

		got, err := wire.Decode(buf, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Tag).To(Equal(wire.MSG))
		Expect(got.Name).To(Equal("echo"))
		Expect(got.Param).To(Equal([]byte("hello")))
		Expect(got.FDs).To(BeEmpty())
	})

	It("preserves FD identity through the decode side, independent of the payload", func() {
		fds := []int{7, 42}
		m := wire.Message{Tag: wire.REQ, Name: "fds", Param: nil, FDs: fds}
		buf, err := wire.Encode(m)
		Expect(err).ToNot(HaveOccurred())

		got, err := wire.Decode(buf, fds)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.FDs).To(Equal(fds))
	})

	It("rejects an empty name", func() {
		_, err := wire.Encode(wire.Message{Tag: wire.MSG, Name: ""})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a name at or beyond MaxNameLen", func() {
		name := strings.Repeat("a", wire.MaxNameLen)
		_, err := wire.Encode(wire.Message{Tag: wire.MSG, Name: name})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a param beyond MaxParamLen", func() {
		_, err := wire.Encode(wire.Message{Tag: wire.MSG, Name: "x", Param: make([]byte, wire.MaxParamLen+1)})
		Expect(err).To(HaveOccurred())
	})

	It("rejects more FDs than MaxFDNum", func() {
		fds := make([]int, wire.MaxFDNum+1)
		_, err := wire.Encode(wire.Message{Tag: wire.MSG, Name: "x", FDs: fds})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a buffer that isn't exactly RecordSize bytes", func() {
		_, err := wire.Decode(make([]byte, wire.RecordSize()-1), nil)
		Expect(err).To(HaveOccurred())

		_, err = wire.Decode(make([]byte, wire.RecordSize()+1), nil)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a record whose declared FD count disagrees with the control data", func() {
		buf, err := wire.Encode(wire.Message{Tag: wire.MSG, Name: "x", FDs: []int{1, 2}})
		Expect(err).ToNot(HaveOccurred())

		_, err = wire.Decode(buf, []int{1})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Tag.String", func() {
	It("names the four known tags", func() {
		Expect(wire.MSG.String()).To(Equal("MSG"))
		Expect(wire.REQ.String()).To(Equal("REQ"))
		Expect(wire.REP.String()).To(Equal("REP"))
		Expect(wire.IGN.String()).To(Equal("IGN"))
	})

	It("falls back to a numeric form for an unknown tag", func() {
		Expect(wire.Tag(99).String()).To(ContainSubstring("99"))
	})
})
