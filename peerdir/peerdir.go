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

// Package peerdir implements peer discovery and the directory-wide
// advisory exclusive lock that freezes the peer set for the duration of a
// fan-out send or broadcast request, per spec.md §4.B.
package peerdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/nabbar/mpmc/mperr"
)

// Directory is the rendezvous surface: one filesystem directory holding
// the primary's socket and every live secondary's socket.
type Directory struct {
	dir    string
	prefix string
	lock   *flock.Flock
}

// New prepares the directory-wide lock at <dir>/.<prefix>.lock without
// touching the filesystem; the lock file is created by the first Lock.
// The directory itself must already exist.
func New(dir, prefix string) *Directory {
	lockPath := filepath.Join(dir, "."+prefix+".lock")
	return &Directory{dir: dir, prefix: prefix, lock: flock.New(lockPath)}
}

// PrimaryPath is the primary's well-known socket path.
func (d *Directory) PrimaryPath() string {
	return filepath.Join(d.dir, d.prefix)
}

// Filter is the glob pattern matching every secondary's socket.
func (d *Directory) Filter() string {
	return d.prefix + "_*"
}

var monotonic = uint64(time.Now().UnixNano())

// SecondaryPath builds a unique secondary socket path,
// <dir>/<prefix>_<pid>_<hex>, where hex is a monotonic counter seeded
// from the wall clock at process start and rendered lowercase hex, guaranteeing uniqueness across restarts
// and concurrent secondaries even if the pid is reused (spec.md §4.A).
func (d *Directory) SecondaryPath() string {
	n := atomic.AddUint64(&monotonic, 1)
	return filepath.Join(d.dir, fmt.Sprintf("%s_%d_%x", d.prefix, os.Getpid(), n))
}

// Peers lists every secondary socket currently present, honoring the glob
// filter. It does not require the directory lock; callers that need a
// frozen view across multiple operations should hold Lock for the whole
// sequence (spec.md invariant 5).
func (d *Directory) Peers() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.dir, d.Filter()))
	if err != nil {
		return nil, mperr.Wrapf(mperr.LocalFault, "peerdir", "glob: %v", err)
	}
	return matches, nil
}

// CleanStale removes every file matching the peer filter; it is called by
// the primary at ChannelInit, never by a secondary (spec.md §4.B).
func (d *Directory) CleanStale() error {
	peers, err := d.Peers()
	if err != nil {
		return err
	}
	for _, p := range peers {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return mperr.Wrapf(mperr.LocalFault, "peerdir", "remove stale peer %s: %v", p, err)
		}
	}
	return nil
}

// Lock acquires the directory-wide exclusive advisory lock for the
// duration of a fan-out operation, blocking until ctx is done or the lock
// is acquired.
func (d *Directory) Lock(ctx context.Context) (Unlocker, error) {
	locked, err := d.lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return nil, mperr.Wrapf(mperr.LocalFault, "peerdir", "lock directory: %v", err)
	}
	if !locked {
		return nil, mperr.New(mperr.LocalFault, "peerdir", "could not acquire directory lock")
	}
	return d.lock, nil
}

// Unlocker is the minimal surface Lock's result exposes; *flock.Flock
// satisfies it.
type Unlocker interface {
	Unlock() error
}

// lockPollInterval matches flock's TryLockContext polling contract; kept
// short since the lock is only ever held for the duration of one fan-out.
const lockPollInterval = 10 * time.Millisecond

// ParsePeerID extracts the "<pid>_<hex>" suffix encoded by SecondaryPath,
// mostly useful for logging and tests.
func ParsePeerID(path, prefix string) (pid int, counter uint64, ok bool) {
	base := filepath.Base(path)
	want := prefix + "_"
	if len(base) <= len(want) || base[:len(want)] != want {
		return 0, 0, false
	}
	rest := base[len(want):]
	var pidStr, hexStr string
	for i := 0; i < len(rest); i++ {
		if rest[i] == '_' {
			pidStr, hexStr = rest[:i], rest[i+1:]
			break
		}
	}
	if pidStr == "" || hexStr == "" {
		return 0, 0, false
	}
	p, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, 0, false
	}
	c, err := strconv.ParseUint(hexStr, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	return p, c, true
}
