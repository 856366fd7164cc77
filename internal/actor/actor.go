// Package actor identifies who issues admin commands and receives messages.
//
// Interactive actors get a stable identity derived from their name. All
// non-interactive (console) actors share ConsoleID, so two console sessions
// see the same pending confirmation slot.
package actor

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/ipgate/internal/messages"
)

// ConsoleID is the reserved identity shared by every console actor.
var ConsoleID = uuid.Nil

// ConsoleName is the attribution recorded for console-issued changes.
const ConsoleName = "CONSOLE"

// namespace scopes name-derived identities.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/ipgate/actor"))

// Actor is anyone who can issue admin commands.
type Actor interface {
	ID() uuid.UUID
	Name() string
	Send(msg messages.Message)
}

// NamedID returns the stable identity for an interactive actor name.
// Names are compared case-insensitively.
func NamedID(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(strings.ToLower(name)))
}

// Writer is an actor that prints messages to an io.Writer.
type Writer struct {
	id     uuid.UUID
	name   string
	format string // "text" | "json"
	color  bool

	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns the console actor writing to w.
func NewConsole(w io.Writer, format string, color bool) *Writer {
	return &Writer{id: ConsoleID, name: ConsoleName, w: w, format: format, color: color}
}

// NewNamed returns an interactive actor writing to w.
func NewNamed(name string, w io.Writer, format string, color bool) *Writer {
	return &Writer{id: NamedID(name), name: name, w: w, format: format, color: color}
}

func (a *Writer) ID() uuid.UUID { return a.id }

func (a *Writer) Name() string { return a.name }

// Send writes msg as one line. Safe for concurrent use.
func (a *Writer) Send(msg messages.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.format == "json" {
		_ = json.NewEncoder(a.w).Encode(messages.Message{
			Key:  msg.Key,
			Text: messages.Format(msg.Text, false),
		})
		return
	}
	fmt.Fprintln(a.w, messages.Format(msg.Text, a.color))
}

// Recorder is an actor that keeps every message it receives.
type Recorder struct {
	id   uuid.UUID
	name string

	mu       sync.Mutex
	received []messages.Message
}

// NewRecorder returns a recording actor. An empty name records as the
// console.
func NewRecorder(name string) *Recorder {
	if name == "" || strings.EqualFold(name, ConsoleName) {
		return &Recorder{id: ConsoleID, name: ConsoleName}
	}
	return &Recorder{id: NamedID(name), name: name}
}

func (r *Recorder) ID() uuid.UUID { return r.id }

func (r *Recorder) Name() string { return r.name }

func (r *Recorder) Send(msg messages.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, msg)
}

// Messages returns a copy of everything received so far.
func (r *Recorder) Messages() []messages.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]messages.Message, len(r.received))
	copy(out, r.received)
	return out
}

// Keys returns the keys of everything received so far.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.received))
	for i, m := range r.received {
		keys[i] = m.Key
	}
	return keys
}

// Drain returns and clears everything received so far.
func (r *Recorder) Drain() []messages.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.received
	r.received = nil
	return out
}
