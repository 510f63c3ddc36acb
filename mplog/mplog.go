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

// Package mplog is a minimal structured-logging seam over logrus. The
// channel never calls logrus directly; every component takes a Logger so
// tests can inject a no-op or a recording implementation.
package mplog

import (
	"github.com/sirupsen/logrus"
)

// Field is one structured key/value pair attached to a log line.
type Field struct {
	Key string
	Val any
}

// F is a short constructor for a Field, mirroring the corpus's fields
// helpers (logger/fields).
func F(key string, val any) Field {
	return Field{Key: key, Val: val}
}

// Logger is the seam every mpmc component logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// logrusLogger adapts a *logrus.Logger to Logger.
type logrusLogger struct {
	log *logrus.Logger
}

// New wraps the given *logrus.Logger. Passing nil uses logrus.StandardLogger().
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{log: l}
}

// Default returns a ready-to-use text-formatted logger at Info level,
// matching the corpus's default logger construction.
func Default() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return New(l)
}

func (g *logrusLogger) entry(fields []Field) *logrus.Entry {
	f := make(logrus.Fields, len(fields))
	for _, fd := range fields {
		f[fd.Key] = fd.Val
	}
	return g.log.WithFields(f)
}

func (g *logrusLogger) Debug(msg string, fields ...Field) { g.entry(fields).Debug(msg) }
func (g *logrusLogger) Info(msg string, fields ...Field)  { g.entry(fields).Info(msg) }
func (g *logrusLogger) Warn(msg string, fields ...Field)  { g.entry(fields).Warn(msg) }
func (g *logrusLogger) Error(msg string, fields ...Field) { g.entry(fields).Error(msg) }

// Nop is a Logger that discards everything; useful for tests that do not
// want log noise.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
