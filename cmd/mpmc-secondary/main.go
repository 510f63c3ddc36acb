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

// Command mpmc-secondary is a minimal secondary process demonstrating the
// channel end to end: it waits for a live primary (PrimaryAlive), joins
// the rendezvous directory, sends one echo request, and logs every
// broadcast heartbeat it receives until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabbar/mpmc/mpconf"
	"github.com/nabbar/mpmc/mplog"
	"github.com/nabbar/mpmc/mpmc"
	"github.com/nabbar/mpmc/role"
	"github.com/nabbar/mpmc/wire"
)

func main() {
	socketDir := flag.String("socket-dir", "/tmp/mpmc", "directory holding the rendezvous sockets")
	prefix := flag.String("prefix", "mpmc", "primary socket filename / peer glob prefix")
	flag.Parse()

	log := mplog.Default()
	cfg := mpconf.Default(*socketDir, *prefix)

	for i := 0; i < 20 && !mpmc.PrimaryAlive(cfg); i++ {
		time.Sleep(250 * time.Millisecond)
	}
	if !mpmc.PrimaryAlive(cfg) {
		log.Warn("no primary detected, continuing anyway")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch, err := mpmc.ChannelInit(ctx, cfg, role.Static(role.Secondary), mpmc.Options{Logger: log})
	if err != nil {
		log.Error("channel init failed", mplog.F("err", err))
		os.Exit(1)
	}
	defer ch.Close()

	_ = ch.Register("heartbeat", func(msg wire.Message, peer string) error {
		log.Info("heartbeat", mplog.F("from", peer), mplog.F("param", string(msg.Param)))
		return nil
	})

	agg, err := ch.Request(ctx, wire.Message{Name: "echo", Param: []byte("hello")}, 2*time.Second)
	if err != nil {
		log.Warn("echo request failed", mplog.F("err", err))
	} else {
		log.Info("echo reply", mplog.F("nb_received", agg.NbReceived))
	}

	<-ctx.Done()
	log.Info("shutting down")
}
