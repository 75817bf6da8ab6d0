package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tanweijie/studysprint/internal/api"
	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/config"
	"github.com/tanweijie/studysprint/internal/domain/detail"
	"github.com/tanweijie/studysprint/internal/domain/directory"
	"github.com/tanweijie/studysprint/internal/domain/forms"
	"github.com/tanweijie/studysprint/internal/domain/mysessions"
	"github.com/tanweijie/studysprint/internal/domain/session"
	"github.com/tanweijie/studysprint/internal/mcp"
	"github.com/tanweijie/studysprint/internal/sqlite"
)

const usage = `usage: studysprint <command> [flags]

commands:
  register   create an account
  login      log in and store the token
  logout     clear the stored token
  whoami     show the decoded identity
  list       list upcoming sessions (-module, -date)
  show       show one session and your legal actions
  create     create a session (-title, -module, -venue, -at, -capacity)
  edit       edit a session you created
  join       join a session
  leave      leave a session
  complete   mark a session you created COMPLETED
  delete     delete a session you created
  mine       list sessions you joined (-leave <id> to leave one)
  mcp        serve the client as MCP tools on stdio
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr: stdout carries command output, and in mcp mode
	// it must stay clean for the protocol stream.
	logWriter := io.Writer(os.Stderr)
	if logPath := os.Getenv("STUDYSPRINT_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.Credentials.Path); err != nil {
		logger.Error("failed to prepare credentials path", "error", err)
		os.Exit(1)
	}
	db, err := sqlite.New(cfg.Credentials.Path)
	if err != nil {
		logger.Error("failed to open credentials store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	credStore, err := sqlite.NewCredentialStore(db, logger)
	if err != nil {
		logger.Error("failed to prepare credentials store", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokens(credStore)
	client := api.New(cfg.API.BaseURL, cfg.API.Timeout, tokens, logger)
	authCtx := auth.NewContext(client, tokens, logger)

	nav := &printNavigator{}
	confirm := &stdinConfirmer{in: bufio.NewReader(os.Stdin)}

	app := &app{
		auth:      authCtx,
		directory: directory.NewService(client, authCtx, nav, logger),
		detail:    detail.NewService(client, authCtx, nav, logger),
		forms:     forms.NewService(client, authCtx, nav, logger),
		mine:      mysessions.NewService(client, authCtx, nav, confirm, logger),
		confirm:   confirm,
		logger:    logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	auth      *auth.Context
	directory *directory.Service
	detail    *detail.Service
	forms     *forms.Service
	mine      *mysessions.Service
	confirm   *stdinConfirmer
	logger    *slog.Logger
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.auth.Logout()
	case "whoami":
		return a.whoami()
	case "list":
		return a.list(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "join":
		return a.sessionAction(ctx, args, "", a.detail.Join)
	case "leave":
		return a.sessionAction(ctx, args, "", a.detail.Leave)
	case "complete":
		return a.sessionAction(ctx, args, "Mark this session as COMPLETED?", a.detail.Complete)
	case "delete":
		return a.sessionAction(ctx, args, "Delete this session? This cannot be undone.", a.detail.Delete)
	case "mine":
		return a.mySessions(ctx, args)
	case "mcp":
		return a.serveMCP(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("user", "", "username")
	password := fs.String("pass", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	message, err := a.auth.Register(ctx, *username, *password, *confirm)
	if err != nil {
		return err
	}
	fmt.Println(message)
	fmt.Println("now log in with: studysprint login")
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("user", "", "username")
	password := fs.String("pass", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.auth.Login(ctx, *username, *password); err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", *username)
	return nil
}

func (a *app) whoami() error {
	ident := a.auth.CurrentIdentity()
	if ident == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s (user %d), token expires %s\n",
		ident.Username, ident.UserID, ident.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	module := fs.String("module", "", "filter by module code")
	date := fs.String("date", "", "filter by date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.directory.Load(ctx, directory.Filter{Module: *module, Date: *date}); err != nil {
		return err
	}

	sessions := a.directory.Sessions()
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}
	for _, s := range sessions {
		printListed(s)
	}
	if options := a.directory.ModuleOptions(); len(options) > 0 {
		fmt.Printf("modules: %s\n", strings.Join(options, ", "))
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	if err := a.detail.Load(ctx, id); err != nil {
		return err
	}
	return a.printDetail()
}

func (a *app) create(ctx context.Context, args []string) error {
	draft, _, err := parseDraftFlags("create", args)
	if err != nil {
		return err
	}
	id, err := a.forms.Create(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Printf("created session %d\n", id)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: studysprint edit <id> [flags]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	current, err := a.forms.LoadForEdit(ctx, id)
	if err != nil {
		return err
	}
	draft, set, err := parseDraftFlags("edit", args[1:])
	if err != nil {
		return err
	}

	// Unset flags keep the loaded values.
	if !set["title"] {
		draft.Title = current.Title
	}
	if !set["module"] {
		draft.Module = current.Module
	}
	if !set["venue"] {
		draft.Venue = current.Venue
	}
	if !set["at"] {
		draft.Datetime = current.Datetime
	}
	if !set["capacity"] {
		draft.Capacity = current.Capacity
	}

	if err := a.forms.Update(ctx, id, draft); err != nil {
		return err
	}
	fmt.Printf("updated session %d\n", id)
	return nil
}

func (a *app) sessionAction(ctx context.Context, args []string, prompt string, action func(context.Context) error) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	if prompt != "" && !a.confirm.Confirm(prompt) {
		return nil
	}
	if err := a.detail.Load(ctx, id); err != nil {
		return err
	}
	if err := action(ctx); err != nil {
		return err
	}
	if a.detail.State() == detail.StateReady {
		return a.printDetail()
	}
	fmt.Println("done")
	return nil
}

func (a *app) mySessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mine", flag.ExitOnError)
	leaveID := fs.Int64("leave", 0, "leave the session with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.mine.Load(ctx); err != nil {
		return err
	}
	if *leaveID != 0 {
		if err := a.mine.Leave(ctx, *leaveID); err != nil {
			return err
		}
	}

	sessions := a.mine.Sessions()
	if len(sessions) == 0 {
		fmt.Println("you have not joined any sessions")
		return nil
	}
	for _, s := range sessions {
		printListed(s)
	}
	return nil
}

func (a *app) serveMCP(ctx context.Context) error {
	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Directory:  a.directory,
			Detail:     a.detail,
			MySessions: a.mine,
			Forms:      a.forms,
			Identity:   a.auth,
		},
		Logger: a.logger,
	})

	a.logger.Info("starting mcp stdio transport")
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

func (a *app) printDetail() error {
	snap, err := a.detail.Snapshot()
	if err != nil {
		return err
	}
	actions, err := a.detail.Actions()
	if err != nil {
		return err
	}

	s := snap.Session
	fmt.Printf("#%d %s\n", s.ID, s.Title)
	fmt.Printf("  module: %s  venue: %s  at: %s\n", s.Module, s.Venue, s.Datetime)
	fullMark := ""
	if snap.Full() {
		fullMark = " (full)"
	}
	fmt.Printf("  status: %s  capacity: %d/%d%s  creator: %s\n",
		s.Status, snap.JoinedCount(), s.Capacity, fullMark, s.CreatorUsername)

	if len(snap.Participants) == 0 {
		fmt.Println("  no one has joined yet")
	} else {
		fmt.Println("  participants:")
		for _, p := range snap.Participants {
			fmt.Printf("    - %s\n", p.Username)
		}
	}

	var available []string
	for _, entry := range []struct {
		name    string
		allowed bool
	}{
		{"join", actions.CanJoin},
		{"leave", actions.CanLeave},
		{"edit", actions.CanEdit},
		{"complete", actions.CanComplete},
		{"delete", actions.CanDelete},
	} {
		if entry.allowed {
			available = append(available, entry.name)
		}
	}
	if len(available) > 0 {
		fmt.Printf("  actions: %s\n", strings.Join(available, ", "))
	}
	return nil
}

func printListed(s session.Session) {
	fullMark := ""
	if s.Full() {
		fullMark = " (full)"
	}
	fmt.Printf("#%d %s [%s] %s at %s %d/%d%s %s\n",
		s.ID, s.Title, s.Module, s.Venue, s.Datetime,
		s.JoinedCount, s.Capacity, fullMark, s.Status)
}

func parseDraftFlags(name string, args []string) (session.Draft, map[string]bool, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	title := fs.String("title", "", "session title")
	module := fs.String("module", "", "module code")
	venue := fs.String("venue", "", "venue")
	at := fs.String("at", "", "datetime (2006-01-02T15:04)")
	capacity := fs.Int("capacity", 0, "max participants")
	if err := fs.Parse(args); err != nil {
		return session.Draft{}, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	return session.Draft{
		Title:    *title,
		Module:   *module,
		Venue:    *venue,
		Datetime: *at,
		Capacity: *capacity,
	}, set, nil
}

func argID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("session id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q", args[0])
	}
	return id, nil
}

// printNavigator renders navigation as output; the CLI has no router.
type printNavigator struct{}

func (printNavigator) Navigate(path string) {
	if path == "/login" {
		fmt.Fprintln(os.Stderr, "session expired or login required: studysprint login")
		return
	}
	fmt.Fprintf(os.Stderr, "see: %s\n", path)
}

// stdinConfirmer asks y/N on the terminal.
type stdinConfirmer struct {
	in *bufio.Reader
}

func (c *stdinConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
