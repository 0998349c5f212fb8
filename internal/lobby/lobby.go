// Package lobby holds the client's cached projection of a multiplayer
// room and its participant roster.
package lobby

import (
	"github.com/coderace-dev/coderace/internal/model"
	"github.com/coderace-dev/coderace/internal/realtime"
)

// Roster is the participant list of one room, keyed by user id. All
// mutation happens by applying inbound coordinator events; remote
// participants are only trusted as reported, never recomputed.
type Roster struct {
	room  model.Room
	order []string
	byID  map[string]*model.Participant
}

// NewRoster builds a roster from the room fetch.
func NewRoster(room model.Room, participants []model.Participant) *Roster {
	r := &Roster{room: room, byID: map[string]*model.Participant{}}
	r.Replace(participants)
	return r
}

// Room returns the cached room projection.
func (r *Roster) Room() model.Room {
	return r.room
}

// IsHost reports whether the user currently hosts the room.
func (r *Roster) IsHost(userID string) bool {
	return userID != "" && r.room.HostUserID == userID
}

// Len returns the number of participants.
func (r *Roster) Len() int {
	return len(r.order)
}

// Participants returns the roster in join order.
func (r *Roster) Participants() []model.Participant {
	out := make([]model.Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Get looks up a participant by user id.
func (r *Roster) Get(userID string) (model.Participant, bool) {
	p, ok := r.byID[userID]
	if !ok {
		return model.Participant{}, false
	}
	return *p, true
}

// Replace installs the authoritative roster carried by player_joined
// and player_left events. Only these events create or remove entries.
func (r *Roster) Replace(participants []model.Participant) {
	r.order = r.order[:0]
	r.byID = map[string]*model.Participant{}
	for _, p := range participants {
		if _, ok := r.byID[p.UserID]; ok {
			continue
		}
		entry := p
		r.order = append(r.order, p.UserID)
		r.byID[p.UserID] = &entry
	}
}

// ApplyLeft applies a player_left event: the refreshed roster plus an
// optional host transfer.
func (r *Roster) ApplyLeft(ev realtime.PlayerLeft) {
	r.Replace(ev.Participants)
	if ev.NewHostID != "" {
		r.room.HostUserID = ev.NewHostID
	}
}

// ApplyProgress merges a progress broadcast onto the matching entry.
// Updates for a user id not in the roster are dropped; progress events
// never create participants.
func (r *Roster) ApplyProgress(upd realtime.ProgressUpdate) bool {
	entry, ok := r.byID[upd.UserID]
	if !ok {
		return false
	}
	entry.Progress = upd.Progress
	entry.WPM = upd.WPM
	entry.Accuracy = upd.Accuracy
	if upd.Username != "" {
		entry.Username = upd.Username
	}
	return true
}

// ApplyFinished marks a participant finished with their final numbers.
func (r *Roster) ApplyFinished(ev realtime.PlayerFinished) bool {
	entry, ok := r.byID[ev.UserID]
	if !ok {
		return false
	}
	entry.IsFinished = true
	entry.WPM = ev.WPM
	entry.Accuracy = ev.Accuracy
	return true
}

// SetStatus updates the cached room status.
func (r *Roster) SetStatus(status model.RoomStatus) {
	r.room.Status = status
}
