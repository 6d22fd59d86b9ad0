package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/domain"
)

const shellHelp = `commands:
  push <to> [state]     add an entry
  replace <to> [state]  replace the current entry
  go <delta>            move relative to the current entry
  back | forward        move one entry
  where                 print the current location
  show | graph          print the stack
  sessions              list sessions
  block                 hold every transition until allow or deny
  allow | deny          answer the held transition
  unblock               stop holding transitions
  exit                  leave the shell
`

// Shell is an interactive prompt over one session.
type Shell struct {
	App     *App
	Session string
	In      io.Reader
	Out     io.Writer

	// Prompt prints a prompt before each line. Off when input is piped.
	Prompt bool

	outMu sync.Mutex

	mu      sync.Mutex
	pending *domain.Transition
	unblock func()
}

// Run reads commands until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	defer s.release()

	scanner := bufio.NewScanner(NewInterruptibleReader(s.In, ctx.Done()))
	s.prompt()
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			s.prompt()
			continue
		}
		quit, err := s.exec(ctx, fields[0], fields[1:])
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
		s.prompt()
	}
	return handleExecutionError(scanner.Err())
}

func (s *Shell) exec(ctx context.Context, cmd string, args []string) (bool, error) {
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		s.printf("%s", shellHelp)
	case "where":
		h, err := s.App.Sessions.History(ctx, s.Session)
		if err != nil {
			return false, err
		}
		s.printf("%s\n", FormatUpdate(h.Snapshot()))
	case "show":
		return false, s.App.Show(ctx, s.Session, s.writer(), false)
	case "graph":
		return false, s.App.Graph(ctx, s.Session, s.writer())
	case "sessions":
		ids, err := s.App.Sessions.List(ctx)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			s.printf("- %s\n", id)
		}
	case "block":
		return false, s.block(ctx)
	case "allow":
		return false, s.allow(ctx)
	case "deny":
		s.mu.Lock()
		tx := s.pending
		s.pending = nil
		s.mu.Unlock()
		if tx == nil {
			return false, errors.New("nothing pending")
		}
		s.printf("denied %s %s\n", tx.Action, tx.Location.Path.String())
	case "unblock":
		if !s.release() {
			return false, errors.New("not blocking")
		}
		s.printf("transitions flow freely\n")
	default:
		update, err := s.App.Navigate(ctx, s.Session, cmd, args)
		if err != nil {
			return false, err
		}
		s.printf("%s\n", FormatUpdate(update))
	}
	return false, nil
}

func (s *Shell) block(ctx context.Context) error {
	h, err := s.App.Sessions.History(ctx, s.Session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unblock != nil {
		return errors.New("already blocking")
	}
	s.unblock = h.Block(func(tx domain.Transition) {
		s.mu.Lock()
		s.pending = &tx
		s.mu.Unlock()
		s.printf("blocked: %s %s (allow or deny)\n", tx.Action, tx.Location.Path.String())
	})
	s.printf("holding transitions\n")
	return nil
}

func (s *Shell) allow(ctx context.Context) error {
	s.mu.Lock()
	tx := s.pending
	s.pending = nil
	s.mu.Unlock()
	if tx == nil {
		return errors.New("nothing pending")
	}

	return s.App.Sessions.Do(ctx, s.Session, func(ctx context.Context, h *waypoint.History) error {
		if err := tx.Retry(ctx); err != nil {
			return err
		}
		s.printf("%s\n", FormatUpdate(h.Snapshot()))
		return nil
	})
}

// release removes the shell blocker. It reports whether one was registered.
func (s *Shell) release() bool {
	s.mu.Lock()
	unblock := s.unblock
	s.unblock = nil
	s.pending = nil
	s.mu.Unlock()

	if unblock == nil {
		return false
	}
	unblock()
	return true
}

func (s *Shell) prompt() {
	if s.Prompt {
		s.printf("%s> ", s.Session)
	}
}

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.Out, format, args...)
}

// writer serializes multi-line output with printf.
func (s *Shell) writer() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		s.outMu.Lock()
		defer s.outMu.Unlock()
		return s.Out.Write(p)
	})
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

var errInterrupted = errors.New("interrupted")

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	// Check before blocking
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	// Read (This blocks!)
	n, err = r.base.Read(p)

	// Check after returning
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, errInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}
