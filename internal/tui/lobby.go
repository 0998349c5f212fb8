package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coderace-dev/coderace/internal/lobby"
	"github.com/coderace-dev/coderace/internal/model"
	"github.com/coderace-dev/coderace/internal/realtime"
)

// LobbyParams configures the pre-race lobby screen.
type LobbyParams struct {
	User    model.User
	Lang    string
	Channel *realtime.Channel
	Roster  *lobby.Roster
}

// LobbyModel shows a room's roster while players gather. It quits when
// the host starts the race, the room is deleted, or the user leaves;
// the caller inspects Started and Deleted to pick the next screen.
type LobbyModel struct {
	params LobbyParams
	roster *lobby.Roster

	width  int
	height int

	syncErr string
	started bool
	deleted bool

	sync chan tea.Msg
}

// NewLobbyModel builds a lobby screen over an already joined channel.
func NewLobbyModel(params LobbyParams) *LobbyModel {
	m := &LobbyModel{
		params: params,
		roster: params.Roster,
		sync:   make(chan tea.Msg, 64),
	}
	m.bindChannel()
	return m
}

// Started reports whether the race was started while the lobby was up.
func (m *LobbyModel) Started() bool { return m.started }

// Deleted reports whether the room was deleted while the lobby was up.
func (m *LobbyModel) Deleted() bool { return m.deleted }

func (m *LobbyModel) bindChannel() {
	ch := m.params.Channel
	ch.On(realtime.EventPlayerJoined, func(data json.RawMessage) {
		var ev realtime.PlayerJoined
		if decodeEvent(realtime.EventPlayerJoined, data, &ev) {
			m.push(peerJoinedMsg(ev))
		}
	})
	ch.On(realtime.EventPlayerLeft, func(data json.RawMessage) {
		var ev realtime.PlayerLeft
		if decodeEvent(realtime.EventPlayerLeft, data, &ev) {
			m.push(peerLeftMsg(ev))
		}
	})
	ch.On(realtime.EventGameStarted, func(json.RawMessage) {
		m.push(gameStartedMsg{})
	})
	ch.On(realtime.EventGameDeleted, func(json.RawMessage) {
		m.push(roomDeletedMsg{})
	})
	ch.On(realtime.EventError, func(data json.RawMessage) {
		var ev realtime.ErrorEvent
		if decodeEvent(realtime.EventError, data, &ev) {
			m.push(coordErrMsg{message: ev.Message})
		}
	})
}

func (m *LobbyModel) push(msg tea.Msg) {
	select {
	case m.sync <- msg:
	default:
	}
}

// Init implements tea.Model.
func (m *LobbyModel) Init() tea.Cmd {
	return m.waitSync
}

func (m *LobbyModel) waitSync() tea.Msg {
	return <-m.sync
}

// Update implements tea.Model.
func (m *LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case peerJoinedMsg:
		m.roster.Replace(msg.Participants)
		return m, m.waitSync
	case peerLeftMsg:
		m.roster.ApplyLeft(realtime.PlayerLeft(msg))
		return m, m.waitSync
	case gameStartedMsg:
		m.started = true
		m.roster.SetStatus(model.RoomActive)
		m.params.Channel.Detach()
		return m, tea.Quit
	case roomDeletedMsg:
		m.deleted = true
		m.params.Channel.Detach()
		return m, tea.Quit
	case coordErrMsg:
		m.syncErr = msg.message
		return m, m.waitSync
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *LobbyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.params.Channel.Detach()
		return m, tea.Quit
	case tea.KeyEsc:
		if m.syncErr != "" {
			m.syncErr = ""
			return m, nil
		}
		m.params.Channel.Detach()
		return m, tea.Quit
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			m.params.Channel.Detach()
			return m, tea.Quit
		case "s":
			if m.roster.IsHost(m.params.User.ID) {
				if err := m.params.Channel.StartGame(); err != nil {
					m.syncErr = err.Error()
				}
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *LobbyModel) View() string {
	room := m.roster.Room()
	var b strings.Builder
	b.WriteString(bannerStyle.Render("room " + room.RoomCode))
	if m.params.Lang != "" {
		b.WriteString(headerStyle.Render("  ·  " + m.params.Lang))
	}
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d/%d players", m.roster.Len(), room.MaxPlayers)))
	b.WriteString("\n\n")

	for _, p := range m.roster.Participants() {
		name := p.Username
		if p.UserID == m.params.User.ID {
			name += " (you)"
		}
		if m.roster.IsHost(p.UserID) {
			name += " " + noticeStyle.Render("host")
		}
		b.WriteString("  " + name + "\n")
	}

	b.WriteString("\n")
	if m.roster.IsHost(m.params.User.ID) {
		b.WriteString(headerStyle.Render("s to start  ·  q to leave"))
	} else {
		b.WriteString(headerStyle.Render("waiting for the host  ·  q to leave"))
	}

	body := b.String()
	footer := ""
	if m.syncErr != "" {
		footer = alertStyle.Render(m.syncErr + " (esc to dismiss)")
	}
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return body
		}
		return body + "\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	placed := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return placed + "\n" + footerLine
}
