package race

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/coderace-dev/coderace/internal/model"
)

// State is a race lifecycle state.
type State int

// Race lifecycle states.
const (
	StateLoading State = iota
	StateCountingDown
	StateActive
	StateFinished
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateCountingDown:
		return "counting_down"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionConfig configures one race session.
type SessionConfig struct {
	Mode      model.RaceMode
	Duration  time.Duration
	MaxErrors int
	Clock     clockwork.Clock
}

// Session is the state machine governing a single race. All methods
// must be called from one goroutine; events (keystrokes, timer
// expiries, inbound messages) are serialized by the caller.
type Session struct {
	cfg     SessionConfig
	passage *Passage

	state       State
	lineIndex   int
	completed   []string
	input       string
	errors      int
	consecutive int

	startedAt  time.Time
	deadline   time.Time
	finishedAt time.Time
	timeRanOut bool
}

// NewSession builds a session in the Loading state.
func NewSession(cfg SessionConfig) *Session {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Session{cfg: cfg, state: StateLoading}
}

// Begin installs the passage and leaves Loading. Solo races become
// Active immediately; multiplayer races enter the countdown first.
func (s *Session) Begin(passage *Passage) error {
	if s.state != StateLoading {
		return fmt.Errorf("cannot begin race in state %s", s.state)
	}
	if passage == nil || passage.Len() == 0 {
		return fmt.Errorf("passage is empty")
	}
	s.passage = passage
	if s.cfg.Mode == model.ModeMulti {
		s.state = StateCountingDown
	} else {
		s.state = StateActive
	}
	return nil
}

// CountdownFinished transitions CountingDown to Active and starts race
// timing unconditionally, before the first keystroke. Solo mode instead
// defers timing to the first keystroke; the asymmetry is deliberate.
func (s *Session) CountdownFinished() error {
	if s.state != StateCountingDown {
		return fmt.Errorf("countdown finished in state %s", s.state)
	}
	s.state = StateActive
	s.startTiming()
	return nil
}

// Keystroke applies a change of the input buffer. Outside the Active
// state the buffer is left untouched. In solo mode the first keystroke,
// accepted or not, starts race timing.
func (s *Session) Keystroke(next string) Keystroke {
	if s.state != StateActive {
		return Keystroke{Input: s.input, Consecutive: s.consecutive}
	}
	if s.startedAt.IsZero() {
		s.startTiming()
	}
	res := EvaluateKeystroke(s.CurrentTarget(), s.input, next, s.consecutive, s.cfg.MaxErrors)
	s.input = res.Input
	s.consecutive = res.Consecutive
	if res.Error {
		s.errors++
	}
	return res
}

// SubmitLine commits the current input against the target line. A
// partial or incorrect submission is a no-op. On the final line the
// session transitions to Finished.
func (s *Session) SubmitLine() (advanced, finished bool) {
	if s.state != StateActive {
		return false, false
	}
	if !MatchesTarget(s.CurrentTarget(), s.input) {
		return false, false
	}
	s.completed = append(s.completed, s.passage.Line(s.lineIndex))
	s.lineIndex++
	s.input = ""
	s.consecutive = 0
	if s.lineIndex >= s.passage.Len() {
		s.finish(false)
		return true, true
	}
	return true, false
}

// ExpireDeadline forcibly finishes the race when the time limit is
// reached. A late expiry against an already finished session is a
// no-op.
func (s *Session) ExpireDeadline() bool {
	if s.state != StateActive {
		return false
	}
	s.finish(true)
	return true
}

func (s *Session) startTiming() {
	s.startedAt = s.cfg.Clock.Now()
	s.deadline = s.startedAt.Add(s.cfg.Duration)
}

func (s *Session) finish(timeRanOut bool) {
	s.state = StateFinished
	s.finishedAt = s.cfg.Clock.Now()
	s.timeRanOut = timeRanOut
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// LineIndex returns the index of the line currently being typed.
func (s *Session) LineIndex() int { return s.lineIndex }

// CompletedLines returns the original forms of the committed lines.
func (s *Session) CompletedLines() []string { return s.completed }

// Input returns the in-progress buffer for the current line.
func (s *Session) Input() string { return s.input }

// Errors returns the total number of incorrect keystrokes committed.
func (s *Session) Errors() int { return s.errors }

// Consecutive returns the consecutive-error count.
func (s *Session) Consecutive() int { return s.consecutive }

// MaxErrors returns the consecutive-error gate threshold.
func (s *Session) MaxErrors() int { return s.cfg.MaxErrors }

// StartedAt returns when race timing began, zero if it has not.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Deadline returns the instant the race is forcibly finished, zero
// until timing has started.
func (s *Session) Deadline() time.Time { return s.deadline }

// FinishedAt returns when the race finished, zero until then.
func (s *Session) FinishedAt() time.Time { return s.finishedAt }

// TimeRanOut reports whether the race ended by deadline expiry rather
// than full completion.
func (s *Session) TimeRanOut() bool { return s.timeRanOut }

// Passage returns the passage under the race.
func (s *Session) Passage() *Passage { return s.passage }

// CurrentTarget returns the typing target of the current line, or ""
// past the end of the passage.
func (s *Session) CurrentTarget() string {
	return s.passage.Target(s.lineIndex)
}

// CharsTyped counts the characters of all committed lines, the
// newlines between them, and the in-progress buffer.
func (s *Session) CharsTyped() int {
	return utf8.RuneCountInString(strings.Join(s.completed, "\n")) + utf8.RuneCountInString(s.input)
}

// ProgressChars counts only the committed characters, the value
// broadcast to other participants.
func (s *Session) ProgressChars() int {
	return utf8.RuneCountInString(strings.Join(s.completed, "\n"))
}

// WPM computes the live words-per-minute. After the race finished the
// value is frozen at the moment of finishing.
func (s *Session) WPM() int {
	now := s.cfg.Clock.Now()
	if !s.finishedAt.IsZero() {
		now = s.finishedAt
	}
	return WordsPerMinute(s.CharsTyped(), s.startedAt, now)
}

// Accuracy computes the live accuracy percentage.
func (s *Session) Accuracy() int {
	return Accuracy(s.CharsTyped(), s.errors)
}

// Remaining returns the time left before the deadline, zero before
// timing starts or after it passed.
func (s *Session) Remaining() time.Duration {
	if s.deadline.IsZero() {
		return s.cfg.Duration
	}
	left := s.deadline.Sub(s.cfg.Clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Record builds the local history record of a finished race.
func (s *Session) Record(lang, roomCode string) (model.RaceRecord, error) {
	if s.state != StateFinished {
		return model.RaceRecord{}, fmt.Errorf("race is not finished")
	}
	startedAt := s.startedAt
	if startedAt.IsZero() {
		startedAt = s.finishedAt
	}
	return model.RaceRecord{
		StartedAt:  startedAt,
		EndedAt:    s.finishedAt,
		Lang:       lang,
		Mode:       s.cfg.Mode,
		RoomCode:   roomCode,
		CharsTyped: s.CharsTyped(),
		Errors:     s.errors,
		WPM:        s.WPM(),
		Accuracy:   s.Accuracy(),
		DurationMs: s.finishedAt.Sub(startedAt).Milliseconds(),
		Completed:  !s.timeRanOut,
	}, nil
}
