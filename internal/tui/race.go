package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/coderace-dev/coderace/internal/api"
	"github.com/coderace-dev/coderace/internal/lobby"
	"github.com/coderace-dev/coderace/internal/model"
	"github.com/coderace-dev/coderace/internal/race"
	"github.com/coderace-dev/coderace/internal/realtime"
	"github.com/coderace-dev/coderace/internal/store"
)

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Underline(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	alertStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

const snippetFetchTimeout = 10 * time.Second

// Messages flowing into the race and lobby screens. Coordinator events
// are decoded on the channel read loop and forwarded through a buffered
// queue; clock events arrive from the race clock goroutines.
type (
	snippetMsg struct {
		text     string
		fallback bool
	}
	clockMsg race.ClockEvent

	peerJoinedMsg   realtime.PlayerJoined
	peerLeftMsg     realtime.PlayerLeft
	peerProgressMsg realtime.ProgressUpdate
	peerFinishedMsg realtime.PlayerFinished
	resultsMsg      realtime.GameFinished

	gameStartedMsg    struct{}
	rematchStartedMsg struct{}
	roomDeletedMsg    struct{}
	coordErrMsg       struct{ message string }
)

// RaceParams configures one race screen.
type RaceParams struct {
	Config   model.Config
	Mode     model.RaceMode
	User     model.User
	Lang     string
	RoomCode string
	Snippet  string

	API     *api.Client
	Store   *store.Store
	Channel *realtime.Channel
	Roster  *lobby.Roster
}

// RaceModel drives a single race from snippet loading through the
// results screen. In multiplayer mode it shares the session's
// coordinator channel and roster with the lobby screen that preceded it.
type RaceModel struct {
	params  RaceParams
	session *race.Session
	clock   *race.Clock
	roster  *lobby.Roster

	width  int
	height int

	countdown int
	remaining time.Duration

	notice  string
	syncErr string

	deadlineArmed bool
	finishSent    bool
	recordSaved   bool

	results []model.RaceResult
	rematch bool
	deleted bool

	sync chan tea.Msg
}

// NewRaceModel builds a race screen. For multiplayer races the caller
// provides the channel, the roster, and the room's snippet; solo races
// fetch their own snippet.
func NewRaceModel(params RaceParams) *RaceModel {
	clk := clockwork.NewRealClock()
	m := &RaceModel{
		params: params,
		roster: params.Roster,
		session: race.NewSession(race.SessionConfig{
			Mode:      params.Mode,
			Duration:  params.Config.Duration,
			MaxErrors: params.Config.MaxErrors,
			Clock:     clk,
		}),
		clock:     race.NewClock(clk),
		countdown: params.Config.Countdown,
		remaining: params.Config.Duration,
		sync:      make(chan tea.Msg, 64),
	}
	if params.Channel != nil {
		m.bindChannel()
	}
	return m
}

// Rematch reports whether the coordinator reopened the room for another
// race; the caller returns to the lobby.
func (m *RaceModel) Rematch() bool { return m.rematch }

// Deleted reports whether the room was deleted out from under the race.
func (m *RaceModel) Deleted() bool { return m.deleted }

func (m *RaceModel) bindChannel() {
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
	ch.On(realtime.EventProgressUpdate, func(data json.RawMessage) {
		var ev realtime.ProgressUpdate
		if decodeEvent(realtime.EventProgressUpdate, data, &ev) {
			m.push(peerProgressMsg(ev))
		}
	})
	ch.On(realtime.EventPlayerFinished, func(data json.RawMessage) {
		var ev realtime.PlayerFinished
		if decodeEvent(realtime.EventPlayerFinished, data, &ev) {
			m.push(peerFinishedMsg(ev))
		}
	})
	ch.On(realtime.EventGameFinished, func(data json.RawMessage) {
		var ev realtime.GameFinished
		if decodeEvent(realtime.EventGameFinished, data, &ev) {
			m.push(resultsMsg(ev))
		}
	})
	ch.On(realtime.EventRematchStarted, func(json.RawMessage) {
		m.push(rematchStartedMsg{})
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

func (m *RaceModel) push(msg tea.Msg) {
	select {
	case m.sync <- msg:
	default:
		log.Debug().Msg("sync queue full, dropping coordinator event")
	}
}

func decodeEvent(event string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug().Err(err).Str("event", event).Msg("bad coordinator payload")
		return false
	}
	return true
}

// Init implements tea.Model.
func (m *RaceModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadSnippet, m.waitClock}
	if m.params.Channel != nil {
		cmds = append(cmds, m.waitSync)
	}
	return tea.Batch(cmds...)
}

func (m *RaceModel) loadSnippet() tea.Msg {
	if m.params.Snippet != "" {
		return snippetMsg{text: m.params.Snippet}
	}
	ctx, cancel := context.WithTimeout(context.Background(), snippetFetchTimeout)
	defer cancel()
	text, err := m.params.API.GetSnippet(ctx, m.params.Lang)
	if err != nil {
		log.Warn().Err(err).Str("lang", m.params.Lang).Msg("snippet fetch failed, using fallback")
		return snippetMsg{text: race.FallbackSnippet, fallback: true}
	}
	return snippetMsg{text: text}
}

func (m *RaceModel) waitClock() tea.Msg {
	return clockMsg(<-m.clock.Events())
}

func (m *RaceModel) waitSync() tea.Msg {
	return <-m.sync
}

// Update implements tea.Model.
func (m *RaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case snippetMsg:
		return m.handleSnippet(msg)
	case clockMsg:
		return m.handleClock(race.ClockEvent(msg))
	case peerJoinedMsg:
		m.roster.Replace(msg.Participants)
		return m, m.waitSync
	case peerLeftMsg:
		m.roster.ApplyLeft(realtime.PlayerLeft(msg))
		return m, m.waitSync
	case peerProgressMsg:
		if !m.roster.ApplyProgress(realtime.ProgressUpdate(msg)) {
			log.Debug().Str("user_id", msg.UserID).Msg("progress for unknown participant dropped")
		}
		return m, m.waitSync
	case peerFinishedMsg:
		m.roster.ApplyFinished(realtime.PlayerFinished(msg))
		return m, m.waitSync
	case resultsMsg:
		m.results = msg.Results
		m.roster.SetStatus(model.RoomFinished)
		// The coordinator may call the race over before the local
		// deadline fires; the first termination signal wins.
		if m.session.ExpireDeadline() {
			m.finishRace()
		}
		return m, m.waitSync
	case rematchStartedMsg:
		m.rematch = true
		m.teardown()
		return m, tea.Quit
	case roomDeletedMsg:
		m.deleted = true
		m.teardown()
		return m, tea.Quit
	case coordErrMsg:
		m.syncErr = msg.message
		return m, m.waitSync
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *RaceModel) handleSnippet(msg snippetMsg) (tea.Model, tea.Cmd) {
	if msg.fallback {
		m.notice = "snippet server unreachable, racing a built-in snippet"
	}
	if err := m.session.Begin(race.NewPassage(msg.text)); err != nil {
		m.syncErr = err.Error()
		return m, nil
	}
	if m.session.State() == race.StateCountingDown {
		m.clock.StartCountdown(m.countdown)
	}
	return m, nil
}

func (m *RaceModel) handleClock(ev race.ClockEvent) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case race.CountdownTick:
		m.countdown = ev.Count
	case race.CountdownDone:
		m.countdown = 0
		if err := m.session.CountdownFinished(); err == nil {
			m.clock.StartDeadline(m.session.Deadline())
			m.deadlineArmed = true
		}
	case race.DeadlineTick:
		if m.session.State() == race.StateActive {
			m.remaining = ev.Remaining
		}
	case race.DeadlineExpired:
		m.remaining = 0
		if m.session.ExpireDeadline() {
			m.finishRace()
		}
	}
	return m, m.waitClock
}

func (m *RaceModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.teardown()
		return m, tea.Quit
	case tea.KeyEsc:
		if m.syncErr != "" {
			m.syncErr = ""
			return m, nil
		}
		m.teardown()
		return m, tea.Quit
	}
	switch m.session.State() {
	case race.StateActive:
		return m.handleTypingKey(msg)
	case race.StateFinished:
		return m.handleFinishedKey(msg)
	}
	return m, nil
}

func (m *RaceModel) handleTypingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		input := []rune(m.session.Input())
		if len(input) > 0 {
			m.applyKeystroke(string(input[:len(input)-1]))
		}
	case tea.KeyEnter:
		return m.handleEnter()
	case tea.KeySpace:
		m.applyKeystroke(m.session.Input() + " ")
	case tea.KeyRunes:
		m.applyKeystroke(m.session.Input() + string(msg.Runes))
	}
	return m, nil
}

func (m *RaceModel) applyKeystroke(next string) {
	res := m.session.Keystroke(next)
	m.armDeadline()
	if res.Accepted && m.params.Channel != nil {
		m.broadcastProgress(false)
	}
}

// armDeadline starts the deadline poller once the session has begun
// timing. In solo mode that is the first keystroke, accepted or not.
func (m *RaceModel) armDeadline() {
	if m.deadlineArmed || m.session.StartedAt().IsZero() {
		return
	}
	m.clock.StartDeadline(m.session.Deadline())
	m.deadlineArmed = true
}

func (m *RaceModel) handleEnter() (tea.Model, tea.Cmd) {
	advanced, finished := m.session.SubmitLine()
	if !advanced {
		return m, nil
	}
	if m.params.Channel != nil {
		m.broadcastProgress(true)
	}
	if finished {
		m.finishRace()
	}
	return m, nil
}

func (m *RaceModel) broadcastProgress(lineCompleted bool) {
	_, err := m.params.Channel.SendProgress(
		m.session.ProgressChars(), m.session.WPM(), m.session.Accuracy(), lineCompleted)
	if err != nil {
		m.syncErr = err.Error()
	}
}

func (m *RaceModel) handleFinishedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		m.teardown()
		return m, tea.Quit
	}
	if msg.Type != tea.KeyRunes {
		return m, nil
	}
	switch string(msg.Runes) {
	case "q":
		m.teardown()
		return m, tea.Quit
	case "r":
		if m.params.Channel != nil {
			if err := m.params.Channel.RematchGame(); err != nil {
				m.syncErr = err.Error()
			}
		}
	}
	return m, nil
}

func (m *RaceModel) finishRace() {
	m.clock.Stop()
	if m.params.Channel != nil && !m.finishSent && m.results == nil {
		m.finishSent = true
		if err := m.params.Channel.FinishRace(m.session.WPM(), m.session.Accuracy()); err != nil {
			m.syncErr = err.Error()
		}
	}
	m.saveRecord()
}

func (m *RaceModel) saveRecord() {
	if m.params.Store == nil || m.recordSaved {
		return
	}
	m.recordSaved = true
	rec, err := m.session.Record(m.params.Lang, m.params.RoomCode)
	if err != nil {
		log.Debug().Err(err).Msg("race record unavailable")
		return
	}
	if _, err := m.params.Store.InsertRace(context.Background(), rec); err != nil {
		log.Warn().Err(err).Msg("failed to save race record")
	}
}

func (m *RaceModel) teardown() {
	m.clock.Stop()
	if m.params.Channel != nil {
		m.params.Channel.Detach()
	}
}

// View implements tea.Model.
func (m *RaceModel) View() string {
	var body string
	switch m.session.State() {
	case race.StateLoading:
		body = pendingStyle.Render("fetching snippet...")
	case race.StateCountingDown:
		body = m.viewCountdown()
	case race.StateActive:
		body = m.viewTyping()
	case race.StateFinished:
		body = m.viewFinished()
	}
	footer := m.viewFooter()
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

func (m *RaceModel) viewCountdown() string {
	parts := []string{bannerStyle.Render(fmt.Sprintf("race starts in %d", m.countdown))}
	if roster := m.viewRoster(); roster != "" {
		parts = append(parts, "", roster)
	}
	return strings.Join(parts, "\n")
}

func (m *RaceModel) viewTyping() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewPassage())
	if m.session.Consecutive() >= m.session.MaxErrors() {
		b.WriteString("\n\n")
		b.WriteString(alertStyle.Render("too many errors, delete to continue"))
	}
	if roster := m.viewRoster(); roster != "" {
		b.WriteString("\n\n")
		b.WriteString(roster)
	}
	return b.String()
}

func (m *RaceModel) viewHeader() string {
	segments := []string{
		m.params.Lang,
		formatDuration(m.remaining),
		fmt.Sprintf("%d wpm", m.session.WPM()),
		fmt.Sprintf("%d%% acc", m.session.Accuracy()),
		fmt.Sprintf("%d errors", m.session.Errors()),
	}
	return headerStyle.Render(strings.Join(segments, "  ·  "))
}

func (m *RaceModel) viewPassage() string {
	p := m.session.Passage()
	current := m.session.LineIndex()
	var b strings.Builder
	for i := 0; i < p.Len(); i++ {
		if i > 0 {
			b.WriteRune('\n')
		}
		line := p.Line(i)
		target := p.Target(i)
		indent := line[:len(line)-len(target)]
		switch {
		case i < current:
			b.WriteString(indent + correctStyle.Render(target))
		case i == current:
			b.WriteString(indent + m.viewCurrentLine(target))
		default:
			b.WriteString(indent + pendingStyle.Render(target))
		}
	}
	return b.String()
}

func (m *RaceModel) viewCurrentLine(target string) string {
	targetRunes := []rune(target)
	inputRunes := []rune(m.session.Input())
	cursor := -1
	if len(inputRunes) < len(targetRunes) {
		cursor = len(inputRunes)
	}
	styled := buildStyledRunes(targetRunes, inputRunes, cursor)
	if m.width > 0 {
		return wrapStyledRunes(styled, contentWidth(m.width))
	}
	return renderStyledRunes(styled)
}

func (m *RaceModel) viewRoster() string {
	if m.roster == nil {
		return ""
	}
	total := 0
	if m.session.Passage() != nil {
		total = m.session.Passage().Chars()
	}
	rows := make([]string, 0, m.roster.Len())
	for _, p := range m.roster.Participants() {
		if p.UserID == m.params.User.ID {
			p.Progress = m.session.ProgressChars()
			p.WPM = float64(m.session.WPM())
			p.Accuracy = float64(m.session.Accuracy())
			p.IsFinished = m.session.State() == race.StateFinished
		}
		rows = append(rows, renderParticipant(p, total, p.UserID == m.params.User.ID))
	}
	return strings.Join(rows, "\n")
}

func (m *RaceModel) viewFinished() string {
	var b strings.Builder
	if m.session.TimeRanOut() {
		b.WriteString(bannerStyle.Render("time's up"))
	} else {
		b.WriteString(bannerStyle.Render("race finished"))
	}
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%d wpm  ·  %d%% accuracy  ·  %d errors  ·  %d chars",
		m.session.WPM(), m.session.Accuracy(), m.session.Errors(), m.session.CharsTyped()))

	if m.params.Mode == model.ModeSolo {
		b.WriteString("\n\n")
		b.WriteString(headerStyle.Render("enter to exit"))
		return b.String()
	}

	if roster := m.viewRoster(); roster != "" {
		b.WriteString("\n\n")
		b.WriteString(roster)
	}
	b.WriteString("\n\n")
	if m.results != nil {
		b.WriteString(renderResults(m.results, m.params.User.ID))
		b.WriteString("\n\n")
		b.WriteString(headerStyle.Render("r for rematch  ·  q to quit"))
	} else {
		b.WriteString(pendingStyle.Render("waiting for final results..."))
	}
	return b.String()
}

func (m *RaceModel) viewFooter() string {
	if m.syncErr != "" {
		return alertStyle.Render(m.syncErr + " (esc to dismiss)")
	}
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}
	return ""
}

func renderResults(results []model.RaceResult, selfID string) string {
	rows := make([]string, 0, len(results)+1)
	rows = append(rows, bannerStyle.Render("final standings"))
	for _, r := range results {
		name := r.Username
		if r.UserID == selfID {
			name += " (you)"
		}
		rows = append(rows, fmt.Sprintf("%2d. %-20s %4.0f wpm  %3.0f%%", r.Position, name, r.WPM, r.Accuracy))
	}
	return strings.Join(rows, "\n")
}

func renderParticipant(p model.Participant, total int, self bool) string {
	name := p.Username
	if self {
		name += " (you)"
	}
	pct := progressPercent(p.Progress, total)
	status := fmt.Sprintf("%3d%%  %3.0f wpm  %3.0f%%", pct, p.WPM, p.Accuracy)
	if p.IsFinished {
		status += "  " + noticeStyle.Render("finished")
	}
	return fmt.Sprintf("%-20s %s %s", name, progressBar(pct, 20), status)
}

func progressPercent(progress, total int) int {
	if total <= 0 || progress <= 0 {
		return 0
	}
	pct := progress * 100 / total
	if pct > 100 {
		pct = 100
	}
	return pct
}

func progressBar(pct, width int) string {
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func contentWidth(width int) int {
	w := int(float64(width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
