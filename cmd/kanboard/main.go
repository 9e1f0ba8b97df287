package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/kanboard/internal/adapters/server"
	"github.com/hylla/kanboard/internal/adapters/server/common"
	"github.com/hylla/kanboard/internal/adapters/storage/rediscache"
	"github.com/hylla/kanboard/internal/adapters/storage/sqlite"
	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/config"
	"github.com/hylla/kanboard/internal/domain"
	"github.com/hylla/kanboard/internal/platform"
	"github.com/hylla/kanboard/internal/tui"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
	return server.Run(ctx, cfg, deps)
}

// redisClientFactory builds the cache client.
var redisClientFactory = func(opts *redis.Options) *redis.Client {
	return redis.NewClient(opts)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the persistent flag values.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand wires every subcommand under the TUI root.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{appName: platform.DefaultAppName}
	if envApp := strings.TrimSpace(os.Getenv("KANBOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("KANBOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	root := &cobra.Command{
		Use:          "kanboard",
		Short:        "A four-column kanban board with drag-and-drop card ordering",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "tui", runTUI)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use the separate dev profile under each app directory")

	root.AddCommand(
		newServeCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newPrintCommand(opts),
		newPathsCommand(opts),
		newVersionCommand(),
	)
	return root
}

// newServeCommand builds the HTTP+MCP serve command.
func newServeCommand(opts *rootOptions) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "serve", func(ctx context.Context, rt *boardRuntime) error {
				serverCfg := server.Config{
					HTTPBind:      firstNonEmpty(httpBind, rt.cfg.Server.HTTPBind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
					ServerName:    rt.appName,
					ServerVersion: version,
				}
				rt.logger.Info("serve configuration resolved", "http_bind", serverCfg.HTTPBind, "api_endpoint", serverCfg.APIEndpoint, "mcp_endpoint", serverCfg.MCPEndpoint)
				return serveCommandRunner(ctx, serverCfg, server.Dependencies{
					Board:  common.NewAppServiceAdapter(rt.store),
					Ready:  rt.ready,
					Logger: rt.logger.Component("server"),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

// newExportCommand builds the snapshot export command.
func newExportCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "export", func(_ context.Context, rt *boardRuntime) error {
				return runExport(rt.store, outPath, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCommand builds the snapshot import command.
func newImportCommand(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return withRuntime(cmd, opts, "import", func(ctx context.Context, rt *boardRuntime) error {
				return runImport(ctx, rt.store, inPath)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// newPrintCommand builds the static board table command.
func newPrintCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the board as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "print", func(_ context.Context, rt *boardRuntime) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderBoardTable(rt.store.Board()))
				return err
			})
		},
	}
}

// newPathsCommand builds the resolved paths command.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show resolved config, data, and log paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := platform.Resolve(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", resolveConfigPath(opts.configPath, paths))
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			dbPath, _ := resolveDBPath(opts.dbPath, paths)
			_, _ = fmt.Fprintf(out, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(out, "log: %s\n", paths.LogPath)
			return nil
		},
	}
}

// newVersionCommand builds the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "kanboard %s\n", version)
			return err
		},
	}
}

// boardRuntime holds the resolved config and the wired board store for one command.
type boardRuntime struct {
	appName string
	cfg     config.Config
	logger  *runtimeLogger
	store   *app.Store
	ready   server.ReadyCheck
	closers []func() error
}

// withRuntime resolves config, logging, and storage, then runs fn.
func withRuntime(cmd *cobra.Command, opts *rootOptions, command string, fn func(context.Context, *boardRuntime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	paths, err := platform.Resolve(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return err
	}
	configPath := resolveConfigPath(opts.configPath, paths)
	dbPath, dbOverridden := resolveDBPath(opts.dbPath, paths)

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	devLogPath := strings.TrimSpace(cfg.Logging.DevFile)
	if devLogPath == "" {
		devLogPath = paths.LogPath
	}
	logger, err := newRuntimeLogger(cmd.ErrOrStderr(), opts.appName, opts.devMode, string(cfg.Logging.Level), devLogPath)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Runtime logs stay in the dev-file sink while the board owns the terminal.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	rt, err := openBoardRuntime(ctx, cfg, opts.appName, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	logger.Info("command flow start", "command", command)
	if err := fn(ctx, rt); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

// openBoardRuntime wires persistence, the optional Redis cache, and the store.
func openBoardRuntime(ctx context.Context, cfg config.Config, appName string, logger *runtimeLogger) (*boardRuntime, error) {
	rt := &boardRuntime{appName: appName, cfg: cfg, logger: logger}

	var persist app.Persistence
	if cfg.Persistence.Enabled {
		logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
		repo, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		rt.closers = append(rt.closers, repo.Close)
		persist = repo
		logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")
	}

	switch {
	case cfg.Cache.Enabled && persist == nil:
		logger.Warn("cache ignored without persistence", "addr", cfg.Cache.Addr)
	case cfg.Cache.Enabled:
		ttl, err := cfg.CacheTTL()
		if err != nil {
			rt.close()
			return nil, err
		}
		client := redisClientFactory(&redis.Options{Addr: cfg.Cache.Addr, DB: cfg.Cache.DB})
		rt.closers = append(rt.closers, client.Close)
		cache := rediscache.New(persist, client, ttl, cfg.Cache.Namespace)
		persist = cache
		rt.ready = cache.Ping
		logger.Info("redis cache enabled", "addr", cfg.Cache.Addr, "db", cfg.Cache.DB, "ttl", ttl)
	}

	rt.store = app.NewStore(persist, uuid.NewString, time.Now, app.StoreConfig{
		ColumnTitles: columnTitles(cfg),
		Seed:         cfg.Board.Seed,
	}, app.WithLogger(logger.Component("store")))
	board := rt.store.Initialize(ctx)
	if board.Error != "" {
		logger.Warn("board loaded with error", "err", board.Error)
	}
	logger.Debug("board store initialized", "cards", board.CardCount(), "seed", cfg.Board.Seed)
	return rt, nil
}

// close releases every opened collaborator in reverse order.
func (rt *boardRuntime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close collaborator failed", "err", err)
		}
	}
	rt.closers = nil
}

// runTUI runs the interactive board.
func runTUI(_ context.Context, rt *boardRuntime) error {
	m := tui.NewModel(rt.store, app.NewFormController(rt.store))
	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// runExport writes the current board snapshot to outPath or stdout.
func runExport(store *app.Store, outPath string, stdout io.Writer) error {
	encoded, err := json.MarshalIndent(store.ExportSnapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport replaces the board with the snapshot stored at inPath.
func runImport(ctx context.Context, store *app.Store, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// renderBoardTable renders the board with one table column per board column.
func renderBoardTable(b domain.Board) string {
	headers := make([]string, 0, len(b.Columns))
	depth := 0
	for _, column := range b.Columns {
		headers = append(headers, fmt.Sprintf("%s (%d)", column.Title, len(column.Cards)))
		depth = max(depth, len(column.Cards))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for i := 0; i < depth; i++ {
		row := make([]string, len(b.Columns))
		for ci, column := range b.Columns {
			if i < len(column.Cards) {
				row[ci] = column.Cards[i].Title
			}
		}
		t.Row(row...)
	}
	summary := fmt.Sprintf("%d cards", b.CardCount())
	if b.Error != "" {
		summary += " • board error: " + b.Error
	}
	return t.String() + "\n" + summary
}

// columnTitles converts configured titles into store column titles.
func columnTitles(cfg config.Config) map[domain.Status]string {
	titles := cfg.ColumnTitles()
	out := make(map[domain.Status]string, len(titles))
	for id, title := range titles {
		status, err := domain.ParseStatus(id)
		if err != nil {
			continue
		}
		out[status] = title
	}
	return out
}

// resolveConfigPath applies flag, env, then platform precedence.
func resolveConfigPath(flagValue string, paths platform.Layout) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("KANBOARD_CONFIG")); v != "" {
		return v
	}
	return paths.ConfigPath
}

// resolveDBPath applies flag, env, then platform precedence and reports an override.
func resolveDBPath(flagValue string, paths platform.Layout) (string, bool) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(os.Getenv("KANBOARD_DB_PATH")); v != "" {
		return v, true
	}
	return paths.DBPath, false
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	fileSink       *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, levelName, devLogPath string) (*runtimeLogger, error) {
	if strings.TrimSpace(levelName) == "" {
		levelName = string(config.LogLevelInfo)
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", levelName, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || strings.TrimSpace(devLogPath) == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.fileSink = fileLogger
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// Component returns a single sink for library packages, preferring the dev
// file so the TUI terminal stays clean.
func (l *runtimeLogger) Component(name string) *charmLog.Logger {
	switch {
	case l == nil:
		return charmLog.New(io.Discard)
	case l.fileSink != nil:
		return l.fileSink.WithPrefix(l.fileSink.GetPrefix() + "/" + name)
	case l.consoleEnabled:
		return l.consoleSink.WithPrefix(l.consoleSink.GetPrefix() + "/" + name)
	default:
		return charmLog.New(io.Discard)
	}
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

// log forwards one event to every enabled sink.
func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Log(level, msg, keyvals...)
		}
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	l.log(charmLog.DebugLevel, msg, keyvals...)
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	l.log(charmLog.InfoLevel, msg, keyvals...)
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	l.log(charmLog.WarnLevel, msg, keyvals...)
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	l.log(charmLog.ErrorLevel, msg, keyvals...)
}
