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

// Package wire implements the channel's socket endpoint: the fixed-size
// wire record, its encode/decode, and the AF_UNIX SOCK_DGRAM socket that
// carries it with file descriptors riding in ancillary SCM_RIGHTS data.
//
// Encode/decode are pure functions over []byte, callable without a live
// socket, so the framing can be unit tested in isolation from the network
// stack — see spec.md's Design Notes on keeping encode/decode free of
// global state.
package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxNameLen bounds a message's name, in bytes, NUL-padded on the wire.
	MaxNameLen = 64
	// MaxParamLen bounds a message's opaque parameter payload, in bytes.
	MaxParamLen = 4096
	// MaxFDNum bounds the number of file descriptors a single message may carry.
	MaxFDNum = 16
)

// Tag is the envelope type: the first word of the fixed-size record.
type Tag int32

const (
	// MSG is a fire-and-forget message; no reply is expected.
	MSG Tag = 1
	// REQ is a request; the sender expects a REP or IGN reply.
	REQ Tag = 2
	// REP is a reply carrying a real result.
	REP Tag = 3
	// IGN is a reply meaning "pretend I don't exist for this request".
	IGN Tag = 4
)

func (t Tag) String() string {
	switch t {
	case MSG:
		return "MSG"
	case REQ:
		return "REQ"
	case REP:
		return "REP"
	case IGN:
		return "IGN"
	default:
		return fmt.Sprintf("Tag(%d)", int32(t))
	}
}

// recordSize is the byte length of the transmitted iov: tag + name +
// len_param + param + num_fds. The trailing FD array is never transmitted
// in the iov (FDs ride in ancillary data), matching spec.md §4.A.
const recordSize = 4 + MaxNameLen + 4 + MaxParamLen + 4

// Message is the channel's semantic payload: a name, an opaque parameter
// byte slice, and a set of attached file descriptors. Values are flat —
// Param carries no pointers.
type Message struct {
	Tag   Tag
	Name  string
	Param []byte
	FDs   []int
}

// Encode lays out m as the fixed-size wire record described in spec.md §6.
// It does not include ancillary FD data — callers pass m.FDs separately to
// the socket send call, which turns them into an SCM_RIGHTS control message.
func Encode(m Message) ([]byte, error) {
	if len(m.Name) == 0 || len(m.Name) >= MaxNameLen {
		return nil, fmt.Errorf("wire: name length %d out of [1,%d)", len(m.Name), MaxNameLen)
	}
	if len(m.Param) > MaxParamLen {
		return nil, fmt.Errorf("wire: param length %d exceeds %d", len(m.Param), MaxParamLen)
	}
	if len(m.FDs) > MaxFDNum {
		return nil, fmt.Errorf("wire: fd count %d exceeds %d", len(m.FDs), MaxFDNum)
	}

	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.Tag))
	copy(buf[4:4+MaxNameLen], m.Name)
	binary.LittleEndian.PutUint32(buf[4+MaxNameLen:8+MaxNameLen], uint32(len(m.Param)))
	copy(buf[8+MaxNameLen:8+MaxNameLen+MaxParamLen], m.Param)
	binary.LittleEndian.PutUint32(buf[recordSize-4:recordSize], uint32(len(m.FDs)))
	return buf, nil
}

// Decode parses a record previously built by Encode. It rejects anything
// that isn't exactly recordSize bytes, matching invariant 1 of spec.md §3
// (no MSG_TRUNC-equivalent tolerated). fds is copied in verbatim as the
// message's FD array — the caller has already extracted it from the
// datagram's first SCM_RIGHTS control block.
func Decode(buf []byte, fds []int) (Message, error) {
	if len(buf) != recordSize {
		return Message{}, fmt.Errorf("wire: record size %d, want %d", len(buf), recordSize)
	}

	tag := Tag(binary.LittleEndian.Uint32(buf[0:4]))
	nameEnd := 4
	for nameEnd < 4+MaxNameLen && buf[nameEnd] != 0 {
		nameEnd++
	}
	name := string(buf[4:nameEnd])

	lenParam := binary.LittleEndian.Uint32(buf[4+MaxNameLen : 8+MaxNameLen])
	if int(lenParam) > MaxParamLen {
		return Message{}, fmt.Errorf("wire: decoded len_param %d exceeds %d", lenParam, MaxParamLen)
	}
	param := make([]byte, lenParam)
	copy(param, buf[8+MaxNameLen:8+MaxNameLen+int(lenParam)])

	numFDs := binary.LittleEndian.Uint32(buf[recordSize-4 : recordSize])
	if int(numFDs) != len(fds) {
		return Message{}, fmt.Errorf("wire: record declares %d fds, control data carried %d", numFDs, len(fds))
	}

	return Message{Tag: tag, Name: name, Param: param, FDs: fds}, nil
}

// RecordSize exposes recordSize for callers sizing receive buffers.
func RecordSize() int { return recordSize }
