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

// Package role declares the process-role seam the channel consumes but does
// not implement. Real process-role detection (primary election, lock
// arbitration, supervisor handoff) is an external collaborator and a
// Non-goal of this module: callers supply an Oracle, this package only
// supplies the type and a trivial static implementation for tests and demos.
package role

// Role is the process's position in a cooperating fleet: exactly one
// primary, zero or more secondaries.
type Role uint8

const (
	// Secondary is any non-primary cooperating process.
	Secondary Role = iota
	// Primary is the single well-known process a fleet's secondaries
	// rendezvous with.
	Primary
)

func (r Role) String() string {
	if r == Primary {
		return "primary"
	}
	return "secondary"
}

// Oracle answers "what role am I" for the running process. The channel
// calls Current() once, at ChannelInit, and never again.
type Oracle interface {
	Current() Role
}

// staticOracle is an Oracle that always answers the same Role; it exists for
// tests and the demo binaries, which know their role up front rather than
// detecting it.
type staticOracle Role

// Static returns an Oracle fixed to r.
func Static(r Role) Oracle {
	return staticOracle(r)
}

func (s staticOracle) Current() Role {
	return Role(s)
}
