// Package ptyexec implements the PTY executor and scrollback (spec
// component C3): spawning a child process attached to a pseudo-terminal,
// streaming its output through a bounded scrollback, and enforcing the
// single shared timeout policy.
package ptyexec

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// OutputFunc receives each chunk of raw PTY output as it is read. It is
// called from the executor's single reader goroutine, so an implementation
// that wants to push onto a UI channel should not block for long.
type OutputFunc func(chunk []byte)

// Result describes how an execution finished.
type Result struct {
	ExitCode int
	Canceled bool
	TimedOut bool
	Err      error
	Scroll   *PtyScrollback
}

// Request describes one PTY-attached command execution.
type Request struct {
	Argv       []string
	Dir        string
	Env        []string
	MaxLines   int // 0 uses DefaultMaxLines
	MaxBytes   int // 0 uses DefaultMaxBytes
	Timeout    *time.Duration
	OnOutput   OutputFunc // optional, streamed in addition to the scrollback
	Rows, Cols uint16     // 0 uses a sane default (24x80)
}

// Executor spawns commands attached to a pseudo-terminal. Grounded in shape
// on the teacher's task.Manager background-process tracking (os/exec +
// SysProcAttr{Setpgid: true}, graceful-then-forceful Kill), generalized
// from a detached background task to a PTY-attached command with bounded
// scrollback and cooperative cancellation.
type Executor struct {
	mu      sync.Mutex
	running map[string]*execution
}

type execution struct {
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	scroll    *PtyScrollback
	canceled  bool
	argv      []string
	startTime time.Time
	done      bool
	result    *Result
}

// NewExecutor constructs an empty Executor.
func NewExecutor() *Executor {
	return &Executor{running: make(map[string]*execution)}
}

// TaskStatus is a point-in-time snapshot of a background execution,
// returned by Status. Mirrors the teacher's task.Info shape.
type TaskStatus struct {
	ID       string
	Argv     []string
	Running  bool
	Result   *Result // nil while Running
	Output   string
	StartedAt time.Time
}

// Status reports the current state of the execution registered under id.
// Entries remain queryable after completion until evicted by Forget.
func (e *Executor) Status(id string) (TaskStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, ok := e.running[id]
	if !ok {
		return TaskStatus{}, false
	}
	st := TaskStatus{ID: id, Argv: ex.argv, Running: !ex.done, StartedAt: ex.startTime}
	if ex.scroll != nil {
		st.Output = ex.scroll.String()
	}
	if ex.done {
		st.Result = ex.result
	}
	return st, true
}

// Forget drops a completed execution's bookkeeping entry. No-op while the
// execution is still running.
func (e *Executor) Forget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ex, ok := e.running[id]; ok && ex.done {
		delete(e.running, id)
	}
}

// Run spawns req.Argv under a PTY and blocks until it completes, is
// canceled via ctx, or exceeds its resolved timeout. id is an opaque
// identifier the caller can later pass to Cancel; callers that don't need
// mid-flight cancellation may pass "".
func (e *Executor) Run(ctx context.Context, id string, req Request) (res *Result, runErr error) {
	if len(req.Argv) == 0 {
		return nil, fmt.Errorf("ptyexec: empty argv")
	}

	if id != "" {
		defer func() {
			e.mu.Lock()
			if ex, ok := e.running[id]; ok {
				ex.done = true
				ex.result = res
			}
			e.mu.Unlock()
		}()
	}

	timeout := ResolveTimeout(req.Timeout)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, req.Argv[0], req.Argv[1:]...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	if len(req.Env) > 0 {
		cmd.Env = req.Env
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	rows, cols := req.Rows, req.Cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}

	scroll := NewScrollback(req.MaxLines, req.MaxBytes)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("ptyexec: start: %w", err)
	}
	defer ptmx.Close()

	if id != "" {
		e.mu.Lock()
		e.running[id] = &execution{cmd: cmd, cancel: cancel, scroll: scroll, argv: req.Argv, startTime: time.Now()}
		e.mu.Unlock()
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 32*1024)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				scroll.Write(chunk)
				if req.OnOutput != nil {
					req.OnOutput(chunk)
				}
			}
			if readErr != nil {
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	<-readDoneOrTimeout(readDone, 2*time.Second)
	scroll.Flush()

	res = &Result{Scroll: scroll}

	e.mu.Lock()
	wasCanceled := false
	if id != "" {
		if ex, ok := e.running[id]; ok {
			wasCanceled = ex.canceled
		}
	}
	e.mu.Unlock()

	if wasCanceled {
		res.Canceled = true
		scroll.MarkCanceled()
		return res, nil
	}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.Err = fmt.Errorf("ptyexec: command timed out after %s", timeout)
		return res, nil
	}

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.Err = waitErr
		return res, nil
	}

	res.ExitCode = cmd.ProcessState.ExitCode()
	return res, nil
}

// readDoneOrTimeout waits for the reader goroutine to observe EOF, but
// gives up after a bounded grace period so a child that leaves grandchild
// processes holding the PTY slave open cannot wedge Run forever.
func readDoneOrTimeout(done <-chan struct{}, grace time.Duration) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-done:
		case <-time.After(grace):
		}
	}()
	return out
}

// Cancel requests a graceful-then-forceful shutdown of the execution
// registered under id: SIGTERM to the process group, then SIGKILL if it
// hasn't exited within the grace period. Mirrors the teacher's
// task.Manager.Kill.
func (e *Executor) Cancel(id string) error {
	e.mu.Lock()
	ex, ok := e.running[id]
	if ok {
		ex.canceled = true
	}
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("ptyexec: no running execution with id %q", id)
	}

	if ex.cmd.Process == nil {
		ex.cancel()
		return nil
	}

	pid := ex.cmd.Process.Pid
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		ex.cmd.Process.Wait() //nolint:errcheck // best-effort wait for graceful exit
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}

	ex.cancel()
	return nil
}
