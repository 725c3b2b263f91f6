// Package session runs the backend process: a shell attached to a
// pseudo-terminal. Output is handed to a sink as freshly allocated chunks;
// input arrives through WriteInput.
package session

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/dshills/termview/internal/logging"
)

const readBufferSize = 32 * 1024

// Sink receives output chunks. Each chunk is owned by the sink.
type Sink func(chunk []byte)

// Options configures a new session.
type Options struct {
	// Program is the executable (defaults to $SHELL or /bin/sh).
	Program string

	// Args are passed to Program.
	Args []string

	// Env are additional environment variables.
	Env []string

	// WorkDir is the working directory for the process.
	WorkDir string

	// Cols is the number of columns (default 80).
	Cols int

	// Rows is the number of rows (default 24).
	Rows int

	// Sink receives output. Nil discards it.
	Sink Sink

	// OnExit is called once the process has exited and all output has
	// been delivered. Done is already closed when it runs.
	OnExit func(exitCode int)

	Logger *logging.Logger
}

// Session is a running backend process.
type Session struct {
	id        string
	program   string
	startedAt time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	sink   Sink
	onExit func(int)
	logger *logging.Logger

	writeMu  sync.Mutex
	sizeMu   sync.Mutex
	cols     int
	rows     int
	done     chan struct{}
	exitCode atomic.Int32
	closed   atomic.Bool
}

// Start launches the process in a new pseudo-terminal.
func Start(opts Options) (*Session, error) {
	if opts.Program == "" {
		opts.Program = os.Getenv("SHELL")
		if opts.Program == "" {
			opts.Program = "/bin/sh"
		}
	}
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}

	if _, err := exec.LookPath(opts.Program); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShellNotFound, opts.Program)
	}

	cmd := exec.Command(opts.Program, opts.Args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, opts.Env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(opts.Cols),
		Rows: uint16(opts.Rows),
	})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	id := uuid.New().String()
	s := &Session{
		id:        id,
		program:   opts.Program,
		startedAt: time.Now(),
		cmd:       cmd,
		ptmx:      ptmx,
		sink:      opts.Sink,
		onExit:    opts.OnExit,
		logger:    logging.OrNop(opts.Logger).WithComponent("session").WithField("session", id),
		cols:      opts.Cols,
		rows:      opts.Rows,
		done:      make(chan struct{}),
	}
	s.exitCode.Store(-1)

	s.logger.Info("started %s (pid %d, %dx%d)", opts.Program, cmd.Process.Pid, opts.Cols, opts.Rows)

	go s.readLoop()
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Program returns the executable that was started.
func (s *Session) Program() string {
	return s.program
}

// StartedAt returns when the process was started.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// PID returns the process ID.
func (s *Session) PID() int {
	if s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// Write sends input to the process.
func (s *Session) Write(data []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.ptmx.Write(data)
}

// WriteInput sends input without reporting failure. Errors are logged.
func (s *Session) WriteInput(data []byte) {
	if _, err := s.Write(data); err != nil {
		s.logger.Warn("write input: %v", err)
	}
}

// Size returns the current terminal size.
func (s *Session) Size() (cols, rows int) {
	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()
	return s.cols, s.rows
}

// Resize changes the terminal size.
func (s *Session) Resize(cols, rows int) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if cols < 1 || rows < 1 || cols > 0xFFFF || rows > 0xFFFF {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}

	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()
	if cols == s.cols && rows == s.rows {
		return nil
	}
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	s.cols, s.rows = cols, rows
	return nil
}

// Close kills the process and waits for the read loop to finish.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		<-s.done
		return nil
	}

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	err := s.ptmx.Close()
	<-s.done
	return err
}

// Done returns a channel that is closed when the process has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ExitCode returns the exit code, or -1 while running.
func (s *Session) ExitCode() int {
	return int(s.exitCode.Load())
}

// IsRunning reports whether the process is still running.
func (s *Session) IsRunning() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// readLoop copies output to the sink until the pty reports an error. On
// Linux that is EIO once the process side closes.
func (s *Session) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 && s.sink != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.sink(chunk)
		}
		if err != nil {
			break
		}
	}

	code := -1
	if err := s.cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
	} else {
		code = 0
	}
	s.exitCode.Store(int32(code))
	s.closed.Store(true)
	_ = s.ptmx.Close()

	close(s.done)

	s.logger.Info("exited with code %d", code)
	if s.onExit != nil {
		s.onExit(code)
	}
}
