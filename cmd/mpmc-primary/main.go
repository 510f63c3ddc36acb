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

// Command mpmc-primary is a minimal primary process demonstrating the
// channel end to end: it binds the well-known primary socket, registers
// an echo handler, holds the primary-alive lock for its lifetime, and
// broadcasts a heartbeat message to every connected secondary every few
// seconds until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabbar/mpmc/mpconf"
	"github.com/nabbar/mpmc/mplog"
	"github.com/nabbar/mpmc/mpmc"
	"github.com/nabbar/mpmc/mpmetrics"
	"github.com/nabbar/mpmc/role"
	"github.com/nabbar/mpmc/wire"
)

func main() {
	socketDir := flag.String("socket-dir", "/tmp/mpmc", "directory holding the rendezvous sockets")
	prefix := flag.String("prefix", "mpmc", "primary socket filename / peer glob prefix")
	flag.Parse()

	log := mplog.Default()
	cfg := mpconf.Default(*socketDir, *prefix)
	metrics := mpmetrics.New(nil)

	lockFile, err := mpmc.HoldAliveLock(cfg)
	if err != nil {
		log.Error("could not acquire primary-alive lock", mplog.F("err", err))
		os.Exit(1)
	}
	defer lockFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch, err := mpmc.ChannelInit(ctx, cfg, role.Static(role.Primary), mpmc.Options{Logger: log, Metrics: metrics})
	if err != nil {
		log.Error("channel init failed", mplog.F("err", err))
		os.Exit(1)
	}
	defer ch.Close()

	_ = ch.Register("echo", func(msg wire.Message, peer string) error {
		log.Info("echo request", mplog.F("peer", peer), mplog.F("param", string(msg.Param)))
		return ch.Reply(wire.Message{Name: msg.Name, Param: msg.Param}, peer)
	})

	cfg.SetInitComplete(true)
	log.Info("primary ready", mplog.F("socket", ch.LocalPath()))

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			beat := wire.Message{Name: "heartbeat", Param: []byte(fmt.Sprintf("tick=%d", time.Now().Unix()))}
			if err := ch.Send(ctx, beat); err != nil {
				log.Warn("heartbeat broadcast failed", mplog.F("err", err))
			}
		}
	}
}
