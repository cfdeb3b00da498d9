// Copyright (C) 2022 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Handler is the handler of log messages.
type Handler interface {
	Handle(*Message)
	Close()
}

type handler struct {
	handle func(*Message)
	close  func()
}

func (h handler) Handle(m *Message) { h.handle(m) }
func (h handler) Close() {
	if h.close != nil {
		h.close()
	}
}

// NewHandler returns a Handler that calls handle for each message and close
// when the handler is closed. close can be nil.
func NewHandler(handle func(*Message), close func()) Handler {
	return handler{handle, close}
}

// Writer returns a new Handler that writes to w using the given style.
// Writes are serialized.
func Writer(s Style, w io.Writer) Handler {
	var mu sync.Mutex
	return handler{
		handle: func(m *Message) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(w, s.Print(m))
		},
	}
}

// Stdout returns a Handler that writes to os.Stdout.
func Stdout(s Style) Handler { return Writer(s, os.Stdout) }

// Stderr returns a Handler that writes to os.Stderr.
func Stderr(s Style) Handler { return Writer(s, os.Stderr) }

// Fork forwards all messages to all supplied handlers.
func Fork(handlers ...Handler) Handler {
	return handler{
		handle: func(m *Message) {
			for _, h := range handlers {
				h.Handle(m)
			}
		},
		close: func() {
			for _, h := range handlers {
				h.Close()
			}
		},
	}
}

// Buffer returns a Handler that collects the messages in memory, along with
// a function that returns a copy of what has been collected so far.
func Buffer() (Handler, func() []*Message) {
	var mu sync.Mutex
	var out []*Message
	h := handler{
		handle: func(m *Message) {
			mu.Lock()
			defer mu.Unlock()
			out = append(out, m)
		},
	}
	return h, func() []*Message {
		mu.Lock()
		defer mu.Unlock()
		return append([]*Message{}, out...)
	}
}

type handlerKeyTy string
type tagKeyTy string
type clockKeyTy string

const (
	handlerKey handlerKeyTy = "log.handlerKey"
	tagKey     tagKeyTy     = "log.tagKey"
	clockKey   clockKeyTy   = "log.clockKey"
)

// PutHandler returns a new context with the Handler assigned to w.
func PutHandler(ctx context.Context, w Handler) context.Context {
	return context.WithValue(ctx, handlerKey, w)
}

// GetHandler returns the Handler assigned to ctx.
func GetHandler(ctx context.Context) Handler {
	out, _ := ctx.Value(handlerKey).(Handler)
	return out
}

// PutTag returns a new context with the tag assigned to w.
func PutTag(ctx context.Context, tag string) context.Context {
	return context.WithValue(ctx, tagKey, tag)
}

// GetTag returns the tag assigned to ctx.
func GetTag(ctx context.Context) string {
	out, _ := ctx.Value(tagKey).(string)
	return out
}

// PutClock returns a new context with the clock used to timestamp messages.
func PutClock(ctx context.Context, clock func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey, clock)
}

func getClock(ctx context.Context) func() time.Time {
	out, _ := ctx.Value(clockKey).(func() time.Time)
	return out
}
