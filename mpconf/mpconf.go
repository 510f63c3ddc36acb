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

// Package mpconf carries the runtime configuration spec.md names as an
// external collaborator: the socket directory, the primary socket's
// filename, and the init-complete flag. It intentionally does not detect
// process role (see package role) or watch the filesystem for changes.
package mpconf

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config is the channel's runtime configuration.
type Config struct {
	// SocketDir is the directory holding the primary socket and every
	// secondary's socket.
	SocketDir string `yaml:"socket_dir"`
	// Prefix is the primary socket's filename; the glob filter for peer
	// discovery is Prefix + "_*".
	Prefix string `yaml:"prefix"`
	// LockPath is the primary-alive probe's lockfile; defaults to
	// SocketDir/Prefix + ".lock" when empty.
	LockPath string `yaml:"lock_path"`

	// initComplete is read by the dispatcher on every inbound REQ with no
	// matching handler; it is a *atomic.Bool so a caller can flip it after
	// ChannelInit without synchronizing with the receive loop by hand.
	initComplete *atomic.Bool
}

// Default builds a Config for programmatic use (tests, demo binaries) with
// init_complete starting false.
func Default(socketDir, prefix string) *Config {
	c := &Config{
		SocketDir:    socketDir,
		Prefix:       prefix,
		initComplete: &atomic.Bool{},
	}
	return c
}

// Load reads a Config from a YAML file at path, grounded on the corpus's
// yaml.v3-based config loading convention.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{initComplete: &atomic.Bool{}}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PrimarySocketPath returns the absolute path to the primary's socket.
func (c *Config) PrimarySocketPath() string {
	return filepath.Join(c.SocketDir, c.Prefix)
}

// PeerFilter returns the glob pattern matching every secondary's socket.
func (c *Config) PeerFilter() string {
	return c.Prefix + "_*"
}

// ResolvedLockPath returns LockPath, defaulting to SocketDir/Prefix.lock.
func (c *Config) ResolvedLockPath() string {
	if c.LockPath != "" {
		return c.LockPath
	}
	return filepath.Join(c.SocketDir, c.Prefix+".lock")
}

// SetInitComplete flips the init-complete flag; safe for concurrent use
// with the receive loop's InitComplete reads.
func (c *Config) SetInitComplete(v bool) {
	c.initComplete.Store(v)
}

// InitComplete reports whether the process has finished its startup
// handshake; while false, the dispatcher answers unhandled REQs with an
// IGN reply instead of "no such action".
func (c *Config) InitComplete() bool {
	if c.initComplete == nil {
		return false
	}
	return c.initComplete.Load()
}
