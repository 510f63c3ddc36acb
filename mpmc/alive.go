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
	"os"

	"golang.org/x/sys/unix"

	"github.com/nabbar/mpmc/mpconf"
	"github.com/nabbar/mpmc/mperr"
)

// PrimaryAlive is a process-existence probe, not a message: it opens the
// primary's runtime-config lockfile and tests (F_TEST-equivalent, via
// fcntl F_OFD_GETLK) whether it is currently locked. An absent file reports
// false. "currently locked" is true iff a primary is holding
// HoldAliveLock on that path (spec.md §4.F, §6). Open-file-description
// locks are used so the probe also sees a lock held by its own process,
// and closing the probe's descriptor leaves that lock in place.
func PrimaryAlive(cfg *mpconf.Config, path ...string) bool {
	p := cfg.ResolvedLockPath()
	if len(path) > 0 && path[0] != "" {
		p = path[0]
	}

	f, err := os.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	lk := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_OFD_GETLK, &lk); err != nil {
		return false
	}
	return lk.Type != unix.F_UNLCK
}

// HoldAliveLock opens (creating if needed) the primary's runtime-config
// lockfile and takes an exclusive fcntl open-file-description lock
// (F_OFD_SETLK) on it, held for the caller's
// lifetime. PrimaryAlive on another process will observe it as locked.
// The caller is responsible for keeping the returned file open (and
// closing it, which releases the lock, on shutdown).
func HoldAliveLock(cfg *mpconf.Config, path ...string) (*os.File, error) {
	p := cfg.ResolvedLockPath()
	if len(path) > 0 && path[0] != "" {
		p = path[0]
	}

	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, mperr.Wrapf(mperr.LocalFault, "mpmc", "open lockfile %s: %v", p, err)
	}

	lk := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_OFD_SETLK, &lk); err != nil {
		f.Close()
		return nil, mperr.Wrapf(mperr.LocalFault, "mpmc", "lock %s: %v", p, err)
	}
	return f, nil
}
