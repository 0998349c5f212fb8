package lobby

import (
	"testing"

	"github.com/coderace-dev/coderace/internal/model"
	"github.com/coderace-dev/coderace/internal/realtime"
)

func testRoster() *Roster {
	return NewRoster(
		model.Room{RoomCode: "AB12", HostUserID: "u1", MaxPlayers: 4, Status: model.RoomOpen},
		[]model.Participant{
			{UserID: "u1", Username: "ann"},
			{UserID: "u2", Username: "bob"},
		},
	)
}

func TestApplyProgressMergesKnownEntry(t *testing.T) {
	r := testRoster()
	ok := r.ApplyProgress(realtime.ProgressUpdate{UserID: "u2", Progress: 42, WPM: 61, Accuracy: 97})
	if !ok {
		t.Fatalf("update for a known participant must apply")
	}
	p, _ := r.Get("u2")
	if p.Progress != 42 || p.WPM != 61 || p.Accuracy != 97 {
		t.Fatalf("fields must be overwritten, got %+v", p)
	}
	if p.Username != "bob" {
		t.Fatalf("missing fields must not clobber existing ones, got %q", p.Username)
	}
}

func TestApplyProgressDropsUnknownUser(t *testing.T) {
	r := testRoster()
	if r.ApplyProgress(realtime.ProgressUpdate{UserID: "ghost", Progress: 10}) {
		t.Fatalf("update for an unknown participant must be dropped")
	}
	if r.Len() != 2 {
		t.Fatalf("progress events must never create entries, roster len %d", r.Len())
	}
}

func TestReplaceKeepsJoinOrder(t *testing.T) {
	r := testRoster()
	r.Replace([]model.Participant{
		{UserID: "u2", Username: "bob"},
		{UserID: "u3", Username: "cat"},
	})
	got := r.Participants()
	if len(got) != 2 || got[0].UserID != "u2" || got[1].UserID != "u3" {
		t.Fatalf("unexpected roster after replace: %+v", got)
	}
	if _, ok := r.Get("u1"); ok {
		t.Fatalf("replaced roster must drop departed participants")
	}
}

func TestApplyLeftTransfersHost(t *testing.T) {
	r := testRoster()
	r.ApplyLeft(realtime.PlayerLeft{
		UserID:       "u1",
		Participants: []model.Participant{{UserID: "u2", Username: "bob"}},
		NewHostID:    "u2",
	})
	if !r.IsHost("u2") {
		t.Fatalf("host must transfer to the announced new host")
	}
	if r.IsHost("u1") {
		t.Fatalf("old host must lose host status")
	}
}

func TestApplyFinished(t *testing.T) {
	r := testRoster()
	ok := r.ApplyFinished(realtime.PlayerFinished{UserID: "u1", WPM: 80, Accuracy: 99})
	if !ok {
		t.Fatalf("finish for a known participant must apply")
	}
	p, _ := r.Get("u1")
	if !p.IsFinished || p.WPM != 80 {
		t.Fatalf("unexpected participant after finish: %+v", p)
	}
	if r.ApplyFinished(realtime.PlayerFinished{UserID: "ghost"}) {
		t.Fatalf("finish for an unknown participant must be dropped")
	}
}

func TestIsHostEmptyUser(t *testing.T) {
	r := testRoster()
	if r.IsHost("") {
		t.Fatalf("empty user id must never be host")
	}
}
