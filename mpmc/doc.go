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

// Package mpmc (module github.com/nabbar/mpmc) is an intra-host IPC layer
// over AF_UNIX SOCK_DGRAM sockets: a primary process and any number of
// secondary processes exchange named messages, file descriptors and
// synchronous request/reply pairs through one rendezvous directory.
//
// A typical caller picks a role (package role), builds a Config (package
// mpconf), and calls ChannelInit:
//
//	ch, err := mpmc.ChannelInit(ctx, cfg, role.Static(role.Primary), mpmc.Options{})
//
// From there, Register/Unregister install handlers for inbound names, Send
// is fire-and-forget, and Request is the synchronous request/reply
// exchange. PrimaryAlive is a separate, lock-based process-existence probe
// that never touches the socket.
//
// The wire framing (package wire), peer discovery and locking (package
// peerdir), handler dispatch (package handler) and the pending-request
// table (package pending) are usable independently of Channel.
package mpmc
