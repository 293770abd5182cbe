// Package feedback holds the confirmation-dialog and toast primitives that
// every mutating console action goes through.
package feedback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Prompt is a confirmation dialog.
type Prompt struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirmLabel"`
	Destructive  bool   `json:"destructive"`
}

// Confirmer asks the user to confirm an action. A false answer means the
// action must not reach the server.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Kind of toast.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Toast is a transient notification.
type Toast struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Notifier shows toasts.
type Notifier interface {
	Notify(t Toast)
}

// ErrDeclined is returned by an action whose confirmation was not given.
var ErrDeclined = errors.New("Action was not confirmed")

// UI bundles what a view model action needs to talk to the user.
type UI struct {
	Confirmer Confirmer
	Notifier  Notifier
}

// Confirm asks the Confirmer. Without one, nothing is confirmed.
func (u UI) Confirm(ctx context.Context, p Prompt) error {
	if u.Confirmer == nil {
		return ErrDeclined
	}
	ok, err := u.Confirmer.Confirm(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

func (u UI) Notify(t Toast) {
	if u.Notifier != nil {
		u.Notifier.Notify(t)
	}
}

// StaticConfirmer always answers the same way.
type StaticConfirmer bool

func (s StaticConfirmer) Confirm(context.Context, Prompt) (bool, error) {
	return bool(s), nil
}

// RequestConfirmer confirms only when the request carried the confirmation
// flag. Otherwise it remembers the prompt so the handler can send it back.
type RequestConfirmer struct {
	Confirmed bool

	mu      sync.Mutex
	pending *Prompt
}

func (r *RequestConfirmer) Confirm(_ context.Context, p Prompt) (bool, error) {
	if r.Confirmed {
		return true, nil
	}
	r.mu.Lock()
	r.pending = &p
	r.mu.Unlock()
	return false, nil
}

// Pending returns the prompt the action is waiting on, if any.
func (r *RequestConfirmer) Pending() *Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// TerminalConfirmer asks y/N on a terminal.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (t TerminalConfirmer) Confirm(ctx context.Context, p Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	label := p.ConfirmLabel
	if label == "" {
		label = "Confirm"
	}
	fmt.Fprintf(t.Out, "%s\n%s\n%s? [y/N] ", p.Title, p.Message, label)
	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Collector keeps toasts for the response being built.
type Collector struct {
	mu     sync.Mutex
	toasts []Toast
}

func (c *Collector) Notify(t Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, t)
}

// Toasts returns the collected toasts in order.
func (c *Collector) Toasts() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

// LogNotifier writes toasts to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(t Toast) {
	ev := log.Info()
	if t.Kind == Error {
		ev = log.Warn()
	}
	ev.Str("kind", string(t.Kind)).Msg(t.Message)
}

// Multi fans a toast out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(t)
		}
	}
}

// WriterNotifier prints toasts, one per line (CLI).
type WriterNotifier struct {
	W io.Writer
}

func (w WriterNotifier) Notify(t Toast) {
	fmt.Fprintf(w.W, "[%s] %s\n", t.Kind, t.Message)
}

// Succeeded and Failed are shorthands used by the view models.
func Succeeded(n Notifier, msg string) {
	if n != nil {
		n.Notify(Toast{Kind: Success, Message: msg})
	}
}

func Failed(n Notifier, msg string) {
	if n != nil {
		n.Notify(Toast{Kind: Error, Message: msg})
	}
}
