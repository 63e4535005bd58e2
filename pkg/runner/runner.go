// Package runner supervises the execution of project scripts.
//
// A Supervisor starts at most one session per project at a time. Each
// session runs the script under the project's interpreter with the project
// root as working directory, tails stdout and stderr line-by-line into an
// event stream, and settles into exactly one terminal state: Completed,
// Failed, or Terminated.
//
// A nonzero script exit is an ordinary outcome (state Failed), not a
// supervisor error. Cancellation is fire-and-forget: the session's process
// group receives a polite stop, then a hard kill after a grace period.
package runner

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pystudio/pystudio/pkg/errors"
)

// ============================================================================
// Events and states
// ============================================================================

// Stream identifies the origin of an event line.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
	// StreamSystem carries the session's single terminal event.
	StreamSystem Stream = "system"
)

// Event is one line of session output. Seq is monotonic per stream,
// starting at 1, so a consumer can detect gaps within a stream.
type Event struct {
	Stream Stream    `json:"stream"`
	Seq    uint64    `json:"seq"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// State is a session's lifecycle phase.
type State string

const (
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateCompleted  State = "completed"  // exit status 0
	StateFailed     State = "failed"     // nonzero exit status
	StateTerminated State = "terminated" // stopped by Cancel
)

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTerminated
}

// ============================================================================
// Session
// ============================================================================

// Session is one supervised script run.
type Session struct {
	ID          string // UUID
	ProjectRoot string
	ScriptPath  string
	Args        []string

	cmd   *exec.Cmd
	grace time.Duration

	mu       sync.Mutex
	cond     *sync.Cond // signals history growth and settlement
	state    State
	exitCode int
	history  []Event

	streamOnce sync.Once
	stream     chan Event
	done       chan struct{}

	cancelOnce sync.Once
	canceled   chan struct{}

	stdoutSeq uint64
	stderrSeq uint64
	seqMu     sync.Mutex

	release func()
	logger  *log.Logger
}

// Events returns a live view of the session's output, replayed from the
// beginning. The channel is closed after the terminal system event has been
// delivered. The retained history is the source of truth: a consumer that
// reads slowly (or never calls Events at all and polls EventsSince instead)
// never stalls the session's output pumps. Repeated calls return the same
// channel.
func (s *Session) Events() <-chan Event {
	s.streamOnce.Do(func() {
		s.stream = make(chan Event, eventBuffer)
		go s.forward()
	})
	return s.stream
}

// forward replays the history into the stream channel, waiting for more
// whenever it catches up, and closes the channel once the session has
// settled and everything has been sent.
func (s *Session) forward() {
	defer close(s.stream)
	offset := 0
	for {
		s.mu.Lock()
		for offset >= len(s.history) && !s.state.Terminal() {
			s.cond.Wait()
		}
		batch := make([]Event, len(s.history)-offset)
		copy(batch, s.history[offset:])
		offset = len(s.history)
		settled := s.state.Terminal()
		s.mu.Unlock()
		for _, ev := range batch {
			s.stream <- ev
		}
		if settled {
			return
		}
	}
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the session's current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExitCode returns the script's exit status, or -1 before the session has
// finished (and for terminated sessions on platforms that cannot report
// the code of a killed process group).
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// EventsSince returns retained events after the given history offset along
// with the session's current state. Offset 0 returns everything.
func (s *Session) EventsSince(offset int) ([]Event, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.history) {
		return nil, s.state
	}
	out := make([]Event, len(s.history)-offset)
	copy(out, s.history[offset:])
	return out, s.state
}

// SetGrace adjusts the session's cancel grace period. Effective only
// before Cancel is called.
func (s *Session) SetGrace(d time.Duration) {
	if d > 0 {
		s.grace = d
	}
}

// Cancel requests termination and returns immediately. The process group
// receives a graceful stop; if the session is still alive after the grace
// period it is killed. Calling Cancel more than once, or after the session
// has finished, is a no-op.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.canceled)
		go func() {
			if err := terminate(s.cmd); err != nil {
				s.logger.Debugf("terminate session %s: %v", s.ID, err)
			}
			select {
			case <-s.done:
				return
			case <-time.After(s.grace):
			}
			if err := kill(s.cmd); err != nil {
				s.logger.Debugf("kill session %s: %v", s.ID, err)
			}
		}()
	})
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// emit records an event in the history and wakes any forwarder.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	s.history = append(s.history, ev)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// nextSeq hands out the per-stream sequence number.
func (s *Session) nextSeq(stream Stream) uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	switch stream {
	case StreamStdout:
		s.stdoutSeq++
		return s.stdoutSeq
	default:
		s.stderrSeq++
		return s.stderrSeq
	}
}

// pump tails one pipe into the event stream, line by line.
func (s *Session) pump(stream Stream, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.emit(Event{
			Stream: stream,
			Seq:    s.nextSeq(stream),
			Text:   scanner.Text(),
			Time:   time.Now(),
		})
	}
}

// supervise waits for the pumps and the process, settles the terminal
// state, emits the terminal event, and closes the stream.
func (s *Session) supervise(wg *sync.WaitGroup) {
	wg.Wait()
	err := s.cmd.Wait()

	code := 0
	if err != nil {
		code = -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
	}

	var final State
	select {
	case <-s.canceled:
		final = StateTerminated
	default:
		if code == 0 {
			final = StateCompleted
		} else {
			final = StateFailed
		}
	}

	// The terminal event lands in the same critical section as the state
	// change so a forwarder never observes one without the other.
	s.mu.Lock()
	s.state = final
	s.exitCode = code
	s.history = append(s.history, Event{
		Stream: StreamSystem,
		Seq:    1,
		Text:   string(final),
		Time:   time.Now(),
	})
	s.cond.Broadcast()
	s.mu.Unlock()

	close(s.done)
	s.release()

	s.logger.Debugf("session %s finished: %s (exit %d)", s.ID, final, code)
}

// ============================================================================
// Supervisor
// ============================================================================

// DefaultGrace is how long Cancel waits between the graceful stop and the
// hard kill.
const DefaultGrace = 3 * time.Second

// eventBuffer is the Events channel's capacity. It only shapes delivery to
// a live consumer; the session itself writes to the retained history and
// never waits on the channel.
const eventBuffer = 256

// Supervisor starts and tracks script sessions, one per project.
type Supervisor struct {
	// Grace overrides DefaultGrace when positive.
	Grace time.Duration

	// Logger receives debug output. Optional.
	Logger *log.Logger

	mu       sync.Mutex
	active   map[string]*Session // project root -> running session
	sessions map[string]*Session // session ID -> session
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		active:   make(map[string]*Session),
		sessions: make(map[string]*Session),
	}
}

// Start launches scriptPath under interpreter with projectRoot as working
// directory, passing args through to the script verbatim. It returns once
// the process is running; output and the terminal state arrive through the
// session's event stream.
//
// At most one session per project may be alive: a second Start returns a
// SESSION_BUSY error and leaves the running session untouched. A script
// that cannot be spawned at all is a PROCESS_SPAWN error; no session is
// registered in that case.
func (sv *Supervisor) Start(ctx context.Context, interpreter, projectRoot, scriptPath string, args ...string) (*Session, error) {
	if err := errors.ValidateScriptPath(scriptPath); err != nil {
		return nil, err
	}
	abs := scriptPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(projectRoot, scriptPath)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "script not found: %s", scriptPath)
	}

	sess := &Session{
		ID:          uuid.New().String(),
		ProjectRoot: projectRoot,
		ScriptPath:  abs,
		Args:        args,
		grace:       sv.grace(),
		state:       StateStarting,
		exitCode:    -1,
		done:        make(chan struct{}),
		canceled:    make(chan struct{}),
		logger:      sv.logger(),
	}
	sess.cond = sync.NewCond(&sess.mu)

	sv.mu.Lock()
	if cur, ok := sv.active[projectRoot]; ok {
		sv.mu.Unlock()
		return nil, errors.New(errors.ErrCodeSessionBusy,
			"a session is already running for this project (id %s)", cur.ID)
	}
	sv.active[projectRoot] = sess
	sv.sessions[sess.ID] = sess
	sv.mu.Unlock()

	sess.release = func() {
		sv.mu.Lock()
		if sv.active[projectRoot] == sess {
			delete(sv.active, projectRoot)
		}
		sv.mu.Unlock()
	}

	argv := append([]string{abs}, args...)
	cmd := exec.CommandContext(ctx, interpreter, argv...)
	cmd.Dir = projectRoot
	setProcAttr(cmd)
	sess.cmd = cmd

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sess.release()
		sv.forget(sess.ID)
		return nil, errors.Wrap(errors.ErrCodeProcessSpawn, err, "cannot open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		sess.release()
		sv.forget(sess.ID)
		return nil, errors.Wrap(errors.ErrCodeProcessSpawn, err, "cannot open stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		sess.release()
		sv.forget(sess.ID)
		return nil, errors.Wrap(errors.ErrCodeProcessSpawn, err, "cannot start %s", interpreter)
	}
	sess.setState(StateRunning)
	sv.logger().Debugf("session %s started: %s %s", sess.ID, interpreter, abs)

	var wg sync.WaitGroup
	wg.Add(2)
	go sess.pump(StreamStdout, stdout, &wg)
	go sess.pump(StreamStderr, stderr, &wg)
	go sess.supervise(&wg)

	return sess, nil
}

// Get returns the session with the given ID, which may already be in a
// terminal state. Finished sessions stay addressable until Forget.
func (sv *Supervisor) Get(id string) (*Session, error) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sess, ok := sv.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "no session with id %s", id)
	}
	return sess, nil
}

// Forget drops a finished session from the registry. Forgetting a live
// session is rejected.
func (sv *Supervisor) Forget(id string) error {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sess, ok := sv.sessions[id]
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "no session with id %s", id)
	}
	if !sess.State().Terminal() {
		return errors.New(errors.ErrCodeSessionBusy, "session %s is still running", id)
	}
	delete(sv.sessions, id)
	return nil
}

func (sv *Supervisor) forget(id string) {
	sv.mu.Lock()
	delete(sv.sessions, id)
	sv.mu.Unlock()
}

func (sv *Supervisor) grace() time.Duration {
	if sv.Grace > 0 {
		return sv.Grace
	}
	return DefaultGrace
}

func (sv *Supervisor) logger() *log.Logger {
	if sv.Logger != nil {
		return sv.Logger
	}
	return log.Default()
}
