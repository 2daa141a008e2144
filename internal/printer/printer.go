package printer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/receipt"
)

type Status string

const (
	StatusPrinted       Status = "printed"
	StatusFailed        Status = "failed"
	StatusTimeout       Status = "timeout"
	StatusNotConfigured Status = "not_configured"
)

const DefaultTimeout = 10 * time.Second

// Outcome is the result of one print attempt. Printing never returns an error.
type Outcome struct {
	Status      Status `json:"status"`
	Destination string `json:"destination"`
	Message     string `json:"message"`
}

// Rasterizer turns a rendered document into printable bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc receipt.Document) ([]byte, error)
}

// Spooler hands printable bytes to a named printer.
type Spooler interface {
	Spool(ctx context.Context, destination, title string, data []byte) error
}

type Dispatcher struct {
	rasterizer Rasterizer
	spooler    Spooler
	timeout    time.Duration
	log        *logger.Logger
}

func NewDispatcher(r Rasterizer, s Spooler, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{rasterizer: r, spooler: s, timeout: timeout, log: log}
}

// IsConfigured reports whether destination names a real printer.
func IsConfigured(destination string) bool {
	d := strings.TrimSpace(destination)
	return d != "" && !strings.EqualFold(d, "none")
}

// Print makes exactly one delivery attempt bounded by the dispatcher timeout.
func (d *Dispatcher) Print(ctx context.Context, destination string, doc receipt.Document) (out Outcome) {
	destination = strings.TrimSpace(destination)
	out.Destination = destination
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Status: StatusFailed, Destination: destination, Message: fmt.Sprintf("System error: %v", r)}
		}
		d.log.LogPrint(destination, string(out.Status), out.Message)
	}()

	if !IsConfigured(destination) {
		out.Status = StatusNotConfigured
		out.Message = "Printer not configured."
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &systemError{fmt.Sprint(r)}
			}
		}()
		done <- d.deliver(ctx, destination, doc)
	}()

	select {
	case err := <-done:
		var sysErr *systemError
		switch {
		case err == nil:
			out.Status = StatusPrinted
			out.Message = fmt.Sprintf("Printed to %s", destination)
		case errors.As(err, &sysErr):
			out.Status = StatusFailed
			out.Message = fmt.Sprintf("System error: %s", sysErr.msg)
		case errors.Is(err, context.DeadlineExceeded):
			out.Status = StatusTimeout
			out.Message = "Printing timeout reached."
		default:
			out.Status = StatusFailed
			out.Message = fmt.Sprintf("Failed: %v", err)
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out.Status = StatusTimeout
			out.Message = "Printing timeout reached."
		} else {
			out.Status = StatusFailed
			out.Message = fmt.Sprintf("Failed: %v", ctx.Err())
		}
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, destination string, doc receipt.Document) error {
	data, err := d.rasterizer.Rasterize(ctx, doc)
	if err != nil {
		return err
	}
	title := doc.Title
	if title == "" {
		title = string(doc.Kind)
	}
	return d.spooler.Spool(ctx, destination, fmt.Sprintf("%s %s", title, uuid.NewString()[:8]), data)
}

type systemError struct{ msg string }

func (e *systemError) Error() string { return e.msg }
