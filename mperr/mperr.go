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

// Package mperr implements the closed error taxonomy of the message channel:
// invalid, too-big, duplicate, out-of-memory, timeout, local-fault and
// remote-fault. It is deliberately small compared to an open HTTP-style code
// space since the channel only ever needs to distinguish these seven kinds.
package mperr

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error kinds named by the channel's error handling
// design. Zero value Kind(0) is never produced by this package.
type Kind uint8

const (
	_ Kind = iota
	// Invalid marks a null/empty/oversize name, a null message, or a nil peer on reply.
	Invalid
	// TooBig marks a name, param or FD count exceeding its bound.
	TooBig
	// Duplicate marks a handler already registered, or a pending request already
	// outstanding for the same (dst, name).
	Duplicate
	// OutOfMemory marks an allocation failure.
	OutOfMemory
	// Timeout marks a request deadline elapsing with no reply.
	Timeout
	// LocalFault marks a send failure that is not ECONNREFUSED/ENOBUFS, a
	// directory that can't be read, or a lock that can't be taken.
	LocalFault
	// RemoteFault marks a peer that refused the connection or whose queue is
	// full; never surfaced per-peer to a broadcaster, which keeps going.
	RemoteFault
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case TooBig:
		return "too-big"
	case Duplicate:
		return "duplicate"
	case OutOfMemory:
		return "out-of-memory"
	case Timeout:
		return "timeout"
	case LocalFault:
		return "local-fault"
	case RemoteFault:
		return "remote-fault"
	default:
		return "unknown"
	}
}

// Error is the channel's error type: a Kind plus the component that raised
// it, an optional message and an optional wrapped cause.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.String()
	if e.Component != "" {
		msg = e.Component + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is makes errors.Is(err, mperr.ErrTimeout) (and the other sentinel values
// below) work: it reports true when target is a *Error carrying the same Kind, or
// one of the sentinel values declared below.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var o *Error
	if errors.As(target, &o) {
		return o.Kind == e.Kind
	}
	if s, ok := target.(sentinel); ok {
		return Kind(s) == e.Kind
	}
	return false
}

// sentinel lets the package-level Err* values below double as errors.Is
// matchers without allocating an *Error for every comparison.
type sentinel Kind

func (s sentinel) Error() string { return Kind(s).String() }

// Sentinel errors usable with errors.Is(err, mperr.ErrTimeout), matching any
// *Error of the corresponding Kind regardless of component/message/cause.
var (
	ErrInvalid     error = sentinel(Invalid)
	ErrTooBig      error = sentinel(TooBig)
	ErrDuplicate   error = sentinel(Duplicate)
	ErrOutOfMemory error = sentinel(OutOfMemory)
	ErrTimeout     error = sentinel(Timeout)
	ErrLocalFault  error = sentinel(LocalFault)
	ErrRemoteFault error = sentinel(RemoteFault)
)

// New builds an *Error for the given kind, component and message.
func New(kind Kind, component, message string) *Error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Wrap builds an *Error for the given kind, component and cause.
func Wrap(kind Kind, component string, cause error) *Error {
	return &Error{Kind: kind, Component: component, Cause: cause}
}

// Wrapf builds an *Error with a formatted message.
func Wrapf(kind Kind, component, format string, args ...any) *Error {
	return &Error{Kind: kind, Component: component, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind carried by err, if any, and reports whether one
// was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return errors.Is(err, sentinel(kind))
}
