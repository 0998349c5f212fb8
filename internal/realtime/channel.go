package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ProgressThrottle is the minimum wall-clock gap between progress
// broadcasts. Line completions bypass it.
const ProgressThrottle = 200 * time.Millisecond

const dialTimeout = 10 * time.Second

// Transport is the bidirectional message pipe under a Channel. The
// production transport is a websocket connection; tests substitute an
// in-memory pipe.
type Transport interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Handler consumes one inbound event's payload.
type Handler func(data json.RawMessage)

// Channel multiplexes the coordinator connection: named outbound
// commands, registered inbound handlers, and progress throttling. One
// Channel is exclusively owned by one race session at a time.
type Channel struct {
	transport Transport
	clock     clockwork.Clock

	writeMu sync.Mutex

	mu           sync.Mutex
	handlers     map[string]Handler
	lastProgress time.Time
	room         RoomCommand
	joined       bool

	closeOnce sync.Once
}

// Dial connects to the coordinator's websocket endpoint. The server
// URL may use an http or https scheme; it is rewritten for websocket.
func Dial(serverURL string) (*Channel, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	dialer := &websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to coordinator: %w", err)
	}
	log.Info().Str("url", u.String()).Msg("connected to coordinator")
	return NewChannel(conn, clockwork.NewRealClock()), nil
}

// NewChannel wraps an established transport.
func NewChannel(t Transport, clk clockwork.Clock) *Channel {
	return &Channel{
		transport: t,
		clock:     clk,
		handlers:  map[string]Handler{},
	}
}

// On registers the handler for an inbound event, replacing any
// previous one. Handlers run on the read loop goroutine in delivery
// order.
func (c *Channel) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

// Detach removes all registered handlers. Screens detach before
// handing the channel to the next owner.
func (c *Channel) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = map[string]Handler{}
}

// Listen consumes inbound events until the transport fails or the
// channel is closed. Run it on its own goroutine.
func (c *Channel) Listen() {
	for {
		var env Envelope
		if err := c.transport.ReadJSON(&env); err != nil {
			log.Debug().Err(err).Msg("coordinator read loop ended")
			return
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env Envelope) {
	c.mu.Lock()
	h := c.handlers[env.Event]
	c.mu.Unlock()
	if h == nil {
		log.Debug().Str("event", env.Event).Msg("unhandled coordinator event")
		return
	}
	h(env.Data)
}

// JoinRoom announces this user to the room.
func (c *Channel) JoinRoom(roomCode, userID string) error {
	cmd := RoomCommand{RoomCode: strings.ToUpper(roomCode), UserID: userID}
	if err := c.send(CmdJoinRoom, cmd); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	c.mu.Lock()
	c.room = cmd
	c.joined = true
	c.mu.Unlock()
	return nil
}

// LeaveRoom announces this user's departure.
func (c *Channel) LeaveRoom() error {
	c.mu.Lock()
	room := c.room
	joined := c.joined
	c.joined = false
	c.mu.Unlock()
	if !joined {
		return nil
	}
	if err := c.send(CmdLeaveRoom, room); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

// StartGame asks the coordinator to start the race. Only the host's
// request is honored; others get an error event.
func (c *Channel) StartGame() error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if err := c.send(CmdStartGame, room); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	return nil
}

// RematchGame asks the coordinator to reopen the room for another
// race.
func (c *Channel) RematchGame() error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if err := c.send(CmdRematchGame, room); err != nil {
		return fmt.Errorf("failed to request rematch: %w", err)
	}
	return nil
}

// SendProgress broadcasts the local progress. Emissions are limited to
// one per ProgressThrottle window, except that a line completion
// always goes out immediately. Returns whether the update was
// transmitted.
func (c *Channel) SendProgress(progress, wpm, accuracy int, lineCompleted bool) (bool, error) {
	c.mu.Lock()
	now := c.clock.Now()
	if !lineCompleted && !c.lastProgress.IsZero() && now.Sub(c.lastProgress) < ProgressThrottle {
		c.mu.Unlock()
		return false, nil
	}
	c.lastProgress = now
	cmd := ProgressCommand{
		RoomCode: c.room.RoomCode,
		UserID:   c.room.UserID,
		Progress: progress,
		WPM:      wpm,
		Accuracy: accuracy,
	}
	c.mu.Unlock()

	if err := c.send(CmdUpdateProgress, cmd); err != nil {
		return false, fmt.Errorf("failed to send progress: %w", err)
	}
	return true, nil
}

// FinishRace reports the final result snapshot for the local
// participant.
func (c *Channel) FinishRace(wpm, accuracy int) error {
	c.mu.Lock()
	cmd := FinishCommand{
		RoomCode: c.room.RoomCode,
		UserID:   c.room.UserID,
		WPM:      wpm,
		Accuracy: accuracy,
	}
	c.mu.Unlock()
	if err := c.send(CmdFinishRace, cmd); err != nil {
		return fmt.Errorf("failed to report finish: %w", err)
	}
	return nil
}

// Close tears the channel down: leave_room is emitted best-effort,
// handlers are detached, and the transport is closed. Safe to call
// more than once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if lerr := c.LeaveRoom(); lerr != nil {
			log.Debug().Err(lerr).Msg("best-effort leave_room on teardown failed")
		}
		c.mu.Lock()
		c.handlers = map[string]Handler{}
		c.mu.Unlock()
		err = c.transport.Close()
	})
	return err
}

func (c *Channel) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transport.WriteJSON(Envelope{Event: event, Data: data})
}
