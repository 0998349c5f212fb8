// Package realtime implements the client side of the race
// coordinator's event channel.
package realtime

import (
	"encoding/json"

	"github.com/coderace-dev/coderace/internal/model"
)

// Outbound command names.
const (
	CmdJoinRoom       = "join_room"
	CmdLeaveRoom      = "leave_room"
	CmdUpdateProgress = "update_progress"
	CmdFinishRace     = "finish_race"
	CmdStartGame      = "start_game"
	CmdRematchGame    = "rematch_game"
)

// Inbound event names.
const (
	EventPlayerJoined   = "player_joined"
	EventPlayerLeft     = "player_left"
	EventGameStarted    = "game_started"
	EventRematchStarted = "rematch_started"
	EventGameDeleted    = "game_deleted"
	EventProgressUpdate = "progress_update"
	EventPlayerFinished = "player_finished"
	EventGameFinished   = "game_finished"
	EventError          = "error"
)

// Envelope is the wire format of every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomCommand addresses a room on behalf of a user.
type RoomCommand struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
}

// ProgressCommand reports the local participant's progress.
type ProgressCommand struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	Progress int    `json:"progress"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
}

// FinishCommand reports the local participant's final result.
type FinishCommand struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
}

// PlayerJoined carries the refreshed roster after a join.
type PlayerJoined struct {
	UserID       string              `json:"user_id"`
	Participants []model.Participant `json:"participants"`
}

// PlayerLeft carries the refreshed roster after a leave, and the new
// host when the host left.
type PlayerLeft struct {
	UserID       string              `json:"user_id"`
	Participants []model.Participant `json:"participants"`
	NewHostID    string              `json:"new_host_id,omitempty"`
}

// ProgressUpdate is a peer's progress broadcast.
type ProgressUpdate struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Progress int     `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// PlayerFinished announces that one peer crossed the finish line.
type PlayerFinished struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Position int     `json:"position"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// GameFinished carries the authoritative final ranking.
type GameFinished struct {
	Results []model.RaceResult `json:"results"`
}

// ErrorEvent is a session-level error surfaced by the coordinator.
type ErrorEvent struct {
	Message string `json:"message"`
}
