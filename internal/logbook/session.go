package logbook

import "github.com/pkg/errors"

// SessionState is the state of one dialog interaction.
type SessionState int

const (
	AwaitingInput SessionState = iota
	Validating
	Committed
	Aborted
)

func (s SessionState) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting input"
	case Validating:
		return "validating"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// ErrSessionClosed is returned when input is submitted to a finished session.
var ErrSessionClosed = errors.New("dialog session is closed")

// Session drives a dialog that re-prompts until its input commits or the user
// cancels. A user error returns it to AwaitingInput; any other error aborts it.
type Session struct {
	state SessionState
	err   error
}

// NewSession returns a session awaiting input.
func NewSession() *Session { return &Session{state: AwaitingInput} }

// State returns the current state.
func (s *Session) State() SessionState { return s.state }

// Done reports whether the session reached a terminal state.
func (s *Session) Done() bool { return s.state == Committed || s.state == Aborted }

// Err returns the error of the last submission.
func (s *Session) Err() error { return s.err }

// Submit validates and commits the dialog's input through commit.
func (s *Session) Submit(commit func() error) error {
	if s.state != AwaitingInput {
		return ErrSessionClosed
	}
	s.state = Validating
	s.err = commit()
	switch {
	case s.err == nil:
		s.state = Committed
	case IsUserError(s.err):
		s.state = AwaitingInput
	default:
		s.state = Aborted
	}
	return s.err
}

// Cancel aborts the session unless it already finished.
func (s *Session) Cancel() {
	if !s.Done() {
		s.state = Aborted
	}
}
