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

package wire

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/mpmc/mperr"
)

// SendResult classifies the outcome of a single Endpoint.Send call, per
// spec.md §4.A's encode contract.
type SendResult int

const (
	// SendLocalFault means the send could not be attempted or failed for a
	// reason other than ECONNREFUSED/ENOBUFS; the caller should abort.
	SendLocalFault SendResult = -1
	// SendRemoteFault means the peer is dead (ECONNREFUSED) or its queue is
	// full (ENOBUFS); a broadcaster should log this and keep going.
	SendRemoteFault SendResult = 0
	// SendOK means the datagram was queued successfully.
	SendOK SendResult = 1
)

// Endpoint owns one AF_UNIX SOCK_DGRAM socket bound to a filesystem path.
type Endpoint struct {
	conn *net.UnixConn
	path string
}

// Bind creates (or recreates) the datagram socket at path, unlinking any
// stale file first as spec.md §4.A requires.
func Bind(path string) (*Endpoint, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, mperr.Wrapf(mperr.LocalFault, "wire", "unlink stale socket %s: %v", path, err)
	}

	addr := &net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, mperr.Wrapf(mperr.LocalFault, "wire", "bind %s: %v", path, err)
	}
	return &Endpoint{conn: conn, path: path}, nil
}

// Path returns the filesystem path this endpoint is bound to.
func (e *Endpoint) Path() string { return e.path }

// Close closes the underlying socket. It does not unlink the socket file;
// callers that want orderly cleanup do that explicitly (spec.md §6).
func (e *Endpoint) Close() error {
	return e.conn.Close()
}

// Send encodes m and writes it to dst, passing m.FDs as one SCM_RIGHTS
// control message. EINTR is retried by the Go runtime's netpoller; any
// other error is mapped per spec.md §4.A's table.
func (e *Endpoint) Send(dst string, m Message) (SendResult, error) {
	buf, err := Encode(m)
	if err != nil {
		return SendLocalFault, mperr.Wrap(mperr.Invalid, "wire", err)
	}

	var oob []byte
	if len(m.FDs) > 0 {
		oob = unix.UnixRights(m.FDs...)
	}

	addr := &net.UnixAddr{Name: dst, Net: "unixgram"}
	_, _, err = e.conn.WriteMsgUnix(buf, oob, addr)
	if err == nil {
		return SendOK, nil
	}

	if errno, ok := underlyingErrno(err); ok {
		switch errno {
		case syscall.ECONNREFUSED:
			_ = os.Remove(dst)
			return SendRemoteFault, mperr.Wrapf(mperr.RemoteFault, "wire", "peer %s is dead", dst)
		case syscall.ENOBUFS:
			return SendRemoteFault, mperr.Wrapf(mperr.RemoteFault, "wire", "peer %s queue full", dst)
		}
	}
	return SendLocalFault, mperr.Wrapf(mperr.LocalFault, "wire", "send to %s: %v", dst, err)
}

// Received is one decoded inbound datagram plus its sender's socket path,
// used by the receive loop as the peer identity for dispatch and reply.
type Received struct {
	Message Message
	Peer    string
}

// Recv blocks for one datagram, verifies it is exactly RecordSize() bytes
// with no truncation, extracts FDs from the first SCM_RIGHTS control
// block, and decodes it. Any violation is a decode error (spec.md
// invariant 1): oversize/truncated datagrams and decode errors are
// reported to the caller, which logs and continues its loop.
func (e *Endpoint) Recv() (Received, error) {
	dataBuf := make([]byte, RecordSize()+1) // +1 to detect oversize writes
	oobBuf := make([]byte, unix.CmsgSpace(4*MaxFDNum))

	n, oobn, flags, addr, err := e.conn.ReadMsgUnix(dataBuf, oobBuf)
	if err != nil {
		return Received{}, mperr.Wrapf(mperr.LocalFault, "wire", "recv: %v", err)
	}
	if flags&unix.MSG_TRUNC != 0 || flags&unix.MSG_CTRUNC != 0 {
		return Received{}, fmt.Errorf("wire: datagram truncated (flags=%#x)", flags)
	}
	if n != RecordSize() {
		return Received{}, fmt.Errorf("wire: datagram size %d, want %d", n, RecordSize())
	}

	fds, err := firstSCMRights(oobBuf[:oobn])
	if err != nil {
		return Received{}, fmt.Errorf("wire: %w", err)
	}

	msg, err := Decode(dataBuf[:n], fds)
	if err != nil {
		closeAll(fds)
		return Received{}, err
	}

	var peer string
	if addr != nil {
		peer = addr.Name
	}
	return Received{Message: msg, Peer: peer}, nil
}

// firstSCMRights walks oob's control-message chain and returns the FDs of
// the first SCM_RIGHTS block only, per spec.md invariant 2.
func firstSCMRights(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}
	for _, scm := range scms {
		if scm.Header.Level == unix.SOL_SOCKET && scm.Header.Type == unix.SCM_RIGHTS {
			fds, err := unix.ParseUnixRights(&scm)
			if err != nil {
				return nil, fmt.Errorf("extract file descriptors: %w", err)
			}
			return fds, nil
		}
	}
	return nil, nil
}

func closeAll(fds []int) {
	for _, fd := range fds {
		_ = syscall.Close(fd)
	}
}

// underlyingErrno unwraps net.OpError/os.SyscallError down to a syscall.Errno.
func underlyingErrno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}
