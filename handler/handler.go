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

// Package handler implements the name -> handler registry, spec.md §4.C: a
// set of (name, fn) pairs with unique names, serialized by a single
// registry-wide mutex that is never held across a handler invocation.
package handler

import (
	"sync"

	"github.com/nabbar/mpmc/mperr"
	"github.com/nabbar/mpmc/wire"
)

// Func handles one inbound MSG or REQ. A non-nil returned error is logged
// by the dispatcher; no reply is synthesised on the handler's behalf.
type Func func(msg wire.Message, peer string) error

// Registry is a set of handlers indexed by name.
type Registry struct {
	mu sync.Mutex
	m  map[string]Func
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{m: make(map[string]Func)}
}

// Register installs fn under name. It fails with Invalid for an empty name
// or a nil fn, TooBig for an over-long name, Duplicate if name is already
// registered.
func (r *Registry) Register(name string, fn Func) error {
	if err := validateName(name); err != nil {
		return err
	}
	if fn == nil {
		return mperr.New(mperr.Invalid, "handler", "nil handler func")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.m[name]; ok {
		return mperr.Wrapf(mperr.Duplicate, "handler", "handler %q already registered", name)
	}
	r.m[name] = fn
	return nil
}

// Unregister removes name if present; it is a no-op if absent.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, name)
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := r.m[name]
	return fn, ok
}

// validateName enforces spec.md §4.C's bound: non-null, non-empty,
// strictly shorter than wire.MaxNameLen.
func validateName(name string) error {
	if len(name) == 0 {
		return mperr.New(mperr.Invalid, "handler", "empty name")
	}
	if len(name) >= wire.MaxNameLen {
		return mperr.Wrapf(mperr.TooBig, "handler", "name length %d >= %d", len(name), wire.MaxNameLen)
	}
	return nil
}
