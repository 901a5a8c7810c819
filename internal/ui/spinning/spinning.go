// Package spinning provides a friendly spinning clock (or some other spinning symbols)
// to use while the AI is thinking.
package spinning

import (
	"context"
	"fmt"
	"golang.org/x/term"
	"io"
	"k8s.io/klog/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Spinning display, stopped with Done.
type Spinning struct {
	wg     sync.WaitGroup
	cancel func()
}

var (
	ThemeAscii = []rune("|/-\\")
	ThemeMoon  = []rune("🌑🌒🌓🌔🌕🌖🌗🌘")
	ThemeClock = []rune("🕐🕑🕒🕓🕔🕕🕖🕗🕘🕙🕚🕛")

	// Theme defaults to ThemeClock, but it can be set to anything else.
	Theme = ThemeClock

	// Interval between symbols.
	Interval = 250 * time.Millisecond
)

// SafeInterrupt will capture SigInt (Ctrl+C) and SigTerm and call the provided onInterrupt.
// If the program haven't exited after gracePeriod, it will call Reset to reset the terminal
// and exit.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("Got interrupted (signal %q), shutting down... (%s)", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}

		// Wait for gracePeriod before exiting.
		time.Sleep(gracePeriod)
		Reset()
		klog.Fatalf("Graceful shutting down %s period expired, exiting.", gracePeriod)
	}()
}

// Reset terminal: make cursor visible, restore default terminal colors.
func Reset() {
	fmt.Print("\033[?25h\033[39;49;0m\n") // Restore cursor and colors.
}

// New starts a spinning display on the standard output. If it is not a terminal, nothing
// is displayed.
func New(ctx context.Context) *Spinning {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return &Spinning{}
	}
	return NewTo(ctx, os.Stdout)
}

// NewTo starts a spinning display on w that runs on a separate goroutine.
// It stops when Spinning.Done is called or ctx is cancelled.
func NewTo(ctx context.Context, w io.Writer) *Spinning {
	s := &Spinning{}
	ctx, s.cancel = context.WithCancel(ctx)
	theme := Theme
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(Interval)
		defer ticker.Stop()
		_, _ = fmt.Fprint(w, "\033[?25l") // Hide cursor.
		defer func() {
			_, _ = fmt.Fprint(w, "\033[?25h") // Restore cursor.
		}()

		_, _ = fmt.Fprint(w, "  ")
		for idx := 0; ; idx = (idx + 1) % len(theme) {
			_, _ = fmt.Fprintf(w, "\b\b%c", theme[idx])
			select {
			case <-ctx.Done():
				_, _ = fmt.Fprint(w, "\b\b")
				return
			case <-ticker.C:
				// continue
			}
		}
	}()
	return s
}

// Done stops the spinning display and waits for it to finish.
func (s *Spinning) Done() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}
