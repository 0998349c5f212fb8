// Package main provides the CLI entrypoint for coderace.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coderace-dev/coderace/internal/api"
	"github.com/coderace-dev/coderace/internal/config"
	"github.com/coderace-dev/coderace/internal/identity"
	"github.com/coderace-dev/coderace/internal/lobby"
	"github.com/coderace-dev/coderace/internal/logging"
	"github.com/coderace-dev/coderace/internal/model"
	"github.com/coderace-dev/coderace/internal/realtime"
	"github.com/coderace-dev/coderace/internal/stats"
	"github.com/coderace-dev/coderace/internal/statsui"
	"github.com/coderace-dev/coderace/internal/store"
	"github.com/coderace-dev/coderace/internal/tui"
)

const (
	defaultLang        = "python"
	defaultServerURL   = "http://localhost:8000"
	defaultDurationS   = 120
	defaultCountdown   = 3
	defaultMaxErrors   = 7
	defaultMaxPlayers  = 4
	defaultCurveWindow = 10
	defaultLogLevel    = "info"
)

var (
	raceLang      string
	raceServer    string
	raceDuration  int
	raceCountdown int
	raceMaxErrors int
	raceLogLevel  string

	multiName       string
	multiMaxPlayers int

	statsLang        string
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coderace",
		Short:         "Terminal typing races over code snippets",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSoloCmd,
	}

	rootCmd.PersistentFlags().StringVar(&raceLang, "lang", "", "snippet language (default: last used)")
	rootCmd.PersistentFlags().StringVar(&raceServer, "server", defaultServerURL, "race server base URL")
	rootCmd.PersistentFlags().IntVar(&raceDuration, "duration", defaultDurationS, "race time limit in seconds")
	rootCmd.PersistentFlags().IntVar(&raceCountdown, "countdown", defaultCountdown, "multiplayer countdown in seconds")
	rootCmd.PersistentFlags().IntVar(&raceMaxErrors, "max-errors", defaultMaxErrors, "consecutive errors before input is blocked")
	rootCmd.PersistentFlags().StringVar(&raceLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newMultiCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runSoloCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRaceConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := logging.Setup(config.DefaultLogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	raceModel := tui.NewRaceModel(tui.RaceParams{
		Config: cfg,
		Mode:   model.ModeSolo,
		Lang:   cfg.Lang,
		API:    api.New(cfg.ServerURL),
		Store:  st,
	})
	program := tea.NewProgram(raceModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run race: %w", err)
	}
	savePreferredLang(cfg.Lang)
	return nil
}

func newMultiCmd() *cobra.Command {
	multiCmd := &cobra.Command{
		Use:   "multi",
		Short: "Multiplayer races",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and wait for players",
		Args:  cobra.NoArgs,
		RunE:  runMultiCreateCmd,
	}
	joinCmd := &cobra.Command{
		Use:   "join <room-code>",
		Short: "Join an existing room",
		Args:  cobra.ExactArgs(1),
		RunE:  runMultiJoinCmd,
	}
	for _, cmd := range []*cobra.Command{createCmd, joinCmd} {
		cmd.Flags().StringVar(&multiName, "name", "", "display name (prompted if empty)")
	}
	createCmd.Flags().IntVar(&multiMaxPlayers, "max-players", defaultMaxPlayers, "room capacity")

	multiCmd.AddCommand(createCmd)
	multiCmd.AddCommand(joinCmd)
	return multiCmd
}

func runMultiCreateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRaceConfig(cmd)
	if err != nil {
		return err
	}
	if multiMaxPlayers < 2 {
		return fmt.Errorf("--max-players must be at least 2")
	}
	closeLog, err := logging.Setup(config.DefaultLogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	user, session, err := loginGuest()
	if err != nil {
		return err
	}
	defer session.Logout()

	client := api.New(cfg.ServerURL)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	roomCode, err := client.CreateRoom(ctx, user.ID, cfg.Lang, multiMaxPlayers)
	if err != nil {
		return err
	}
	fmt.Printf("room code: %s\n", roomCode)
	savePreferredLang(cfg.Lang)

	return runMultiRace(cfg, user, roomCode, client)
}

func runMultiJoinCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadRaceConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := logging.Setup(config.DefaultLogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	user, session, err := loginGuest()
	if err != nil {
		return err
	}
	defer session.Logout()

	client := api.New(cfg.ServerURL)
	roomCode := strings.ToUpper(strings.TrimSpace(args[0]))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := client.JoinRoom(ctx, user.ID, roomCode); err != nil {
		return err
	}

	return runMultiRace(cfg, user, roomCode, client)
}

// runMultiRace drives the lobby/race loop over one coordinator
// connection. A rematch returns to the lobby; anything else ends the
// session.
func runMultiRace(cfg model.Config, user model.User, roomCode string, client *api.Client) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	ch, err := realtime.Dial(cfg.ServerURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ch.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("failed to close coordinator channel")
		}
	}()
	go ch.Listen()

	joined := false
	for {
		state, err := fetchRoom(client, roomCode)
		if err != nil {
			return err
		}
		roster := lobby.NewRoster(state.Room, state.Participants)
		lobbyModel := tui.NewLobbyModel(tui.LobbyParams{
			User:    user,
			Lang:    state.SnippetLanguage,
			Channel: ch,
			Roster:  roster,
		})
		if !joined {
			if err := ch.JoinRoom(roomCode, user.ID); err != nil {
				return err
			}
			joined = true
		}
		out, err := tea.NewProgram(lobbyModel, tea.WithAltScreen()).Run()
		if err != nil {
			return fmt.Errorf("failed to run lobby: %w", err)
		}
		lobbyDone := out.(*tui.LobbyModel)
		if lobbyDone.Deleted() {
			fmt.Println("the room was closed by the host")
			return nil
		}
		if !lobbyDone.Started() {
			return nil
		}

		// Refetch for the race snippet picked at start.
		state, err = fetchRoom(client, roomCode)
		if err != nil {
			return err
		}
		roster = lobby.NewRoster(state.Room, state.Participants)
		raceModel := tui.NewRaceModel(tui.RaceParams{
			Config:   cfg,
			Mode:     model.ModeMulti,
			User:     user,
			Lang:     state.SnippetLanguage,
			RoomCode: roomCode,
			Snippet:  state.SnippetText,
			API:      client,
			Store:    st,
			Channel:  ch,
			Roster:   roster,
		})
		rout, err := tea.NewProgram(raceModel, tea.WithAltScreen()).Run()
		if err != nil {
			return fmt.Errorf("failed to run race: %w", err)
		}
		raceDone := rout.(*tui.RaceModel)
		if raceDone.Deleted() {
			fmt.Println("the room was closed by the host")
			return nil
		}
		if !raceDone.Rematch() {
			return nil
		}
	}
}

func fetchRoom(client *api.Client, roomCode string) (api.RoomState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return client.GetRoom(ctx, roomCode)
}

func loginGuest() (model.User, *identity.Session, error) {
	name := strings.TrimSpace(multiName)
	if name == "" {
		fmt.Print("your name: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return model.User{}, nil, fmt.Errorf("failed to read name: %w", err)
		}
		name = strings.TrimSpace(line)
	}
	user, err := identity.Guest(name)
	if err != nil {
		return model.User{}, nil, err
	}
	session := identity.NewSession()
	if err := session.Login(user); err != nil {
		return model.User{}, nil, err
	}
	return user, session, nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List snippet languages available on the server",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRaceConfig(cmd)
	if err != nil {
		return err
	}
	client := api.New(cfg.ServerURL)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	langs, err := client.GetLanguages(ctx)
	if err != nil {
		return err
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local race history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter (solo, multi)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N races")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a report instead of the interactive browser")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Lang:        statsLang,
		Mode:        statsMode,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	if statsPlain {
		return printStatsReport(st, cfg)
	}

	statsModel := statsui.NewModel(st, cfg)
	program := tea.NewProgram(statsModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printStatsReport(st *store.Store, cfg model.StatsConfig) error {
	races, err := st.ListRaces(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to load races: %w", err)
	}
	out := os.Stdout
	if err := stats.RenderSummary(out, races); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := stats.RenderHistory(out, races, cfg.Last); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return stats.RenderCurves(out, races, cfg.CurveWindow)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func loadRaceConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lang", &raceLang, fileCfg.Race.Lang)
	applyStringConfig(cmd, "server", &raceServer, fileCfg.Race.ServerURL)
	applyIntConfig(cmd, "duration", &raceDuration, fileCfg.Race.DurationS)
	applyIntConfig(cmd, "countdown", &raceCountdown, fileCfg.Race.Countdown)
	applyIntConfig(cmd, "max-errors", &raceMaxErrors, fileCfg.Race.MaxErrors)
	applyIntConfig(cmd, "max-players", &multiMaxPlayers, fileCfg.Race.MaxPlayers)
	applyStringConfig(cmd, "log-level", &raceLogLevel, fileCfg.Race.LogLevel)

	lang := raceLang
	if lang == "" {
		prefs, perr := config.LoadPrefs(config.DefaultPrefsPath())
		if perr == nil && prefs.PreferredLanguage != "" {
			lang = prefs.PreferredLanguage
		}
	}
	if lang == "" {
		lang = defaultLang
	}

	cfg := model.Config{
		Lang:      lang,
		ServerURL: raceServer,
		Duration:  time.Duration(raceDuration) * time.Second,
		Countdown: raceCountdown,
		MaxErrors: raceMaxErrors,
		LogLevel:  raceLogLevel,
	}
	return cfg, validateConfig(cfg)
}

func validateConfig(cfg model.Config) error {
	if cfg.ServerURL == "" {
		return fmt.Errorf("--server must not be empty")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.Countdown <= 0 {
		return fmt.Errorf("--countdown must be > 0")
	}
	if cfg.MaxErrors <= 0 {
		return fmt.Errorf("--max-errors must be > 0")
	}
	return nil
}

func savePreferredLang(lang string) {
	if lang == "" {
		return
	}
	prefs := config.Prefs{PreferredLanguage: lang}
	if err := config.SavePrefs(config.DefaultPrefsPath(), prefs); err != nil {
		log.Debug().Err(err).Msg("failed to save preferred language")
	}
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		log.Debug().Err(cerr).Msg("failed to close db")
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# coderace configuration
# Uncomment a value to enable it. CLI flags override config values.

[race]
# lang = %q            # Snippet language
# server = %q  # Race server base URL
# duration = %d        # Race time limit in seconds
# countdown = %d       # Multiplayer countdown in seconds
# max-errors = %d      # Consecutive errors before input is blocked
# max-players = %d     # Default room capacity
# log-level = %q       # debug, info, warn, error
`,
		defaultLang,
		defaultServerURL,
		defaultDurationS,
		defaultCountdown,
		defaultMaxErrors,
		defaultMaxPlayers,
		defaultLogLevel,
	)
}
