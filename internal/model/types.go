// Package model defines shared data structures.
package model

import "time"

// Config defines race settings.
type Config struct {
	Lang      string
	ServerURL string
	Duration  time.Duration
	Countdown int
	MaxErrors int
	LogLevel  string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lang        string
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// RaceMode distinguishes solo and multiplayer races.
type RaceMode string

// Race modes.
const (
	ModeSolo  RaceMode = "solo"
	ModeMulti RaceMode = "multi"
)

// RaceRecord captures a completed race for local history.
type RaceRecord struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Lang       string
	Mode       RaceMode
	RoomCode   string
	CharsTyped int
	Errors     int
	WPM        int
	Accuracy   int
	DurationMs int64
	Completed  bool
}

// RaceAggregate summarizes a stored race for reporting.
type RaceAggregate struct {
	RaceID     int64
	EndedAt    time.Time
	Lang       string
	Mode       RaceMode
	CharsTyped int
	Errors     int
	WPM        int
	Accuracy   int
	DurationMs int64
	Completed  bool
}

// User is an identity usable to join a race.
type User struct {
	ID       string
	Username string
}

// Participant mirrors one racer in a multiplayer room as reported by the
// coordinator. Remote entries are never recomputed locally.
type Participant struct {
	UserID     string  `json:"user_id"`
	Username   string  `json:"username"`
	Progress   int     `json:"progress"`
	WPM        float64 `json:"wpm"`
	Accuracy   float64 `json:"accuracy"`
	IsFinished bool    `json:"is_finished"`
}

// RoomStatus is the lifecycle state of a multiplayer room.
type RoomStatus string

// Room statuses.
const (
	RoomOpen     RoomStatus = "open"
	RoomActive   RoomStatus = "in_progress"
	RoomFinished RoomStatus = "finished"
)

// Room is the client's cached projection of a multiplayer room. The
// authoritative copy lives in the coordinator.
type Room struct {
	RoomCode   string     `json:"room_code"`
	HostUserID string     `json:"host_user_id"`
	MaxPlayers int        `json:"max_players"`
	Status     RoomStatus `json:"status"`
}

// RaceResult is one entry of the final ranking computed by the coordinator.
type RaceResult struct {
	Position int     `json:"position"`
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}
