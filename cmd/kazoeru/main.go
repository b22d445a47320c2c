// Package main is the kazoeru CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kazoeru/internal/cli"
	"github.com/hyperjump/kazoeru/internal/concordance"
	"github.com/hyperjump/kazoeru/internal/config"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/indexer"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/ranking"
	"github.com/hyperjump/kazoeru/internal/search"
	"github.com/hyperjump/kazoeru/internal/server"
	"github.com/hyperjump/kazoeru/internal/storage"
	"github.com/hyperjump/kazoeru/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kazoeru/config.yaml"

// Exit codes. A rejected query exits 2 so scripts can tell it from a
// broken installation.
const (
	exitFailure      = 1
	exitInvalidQuery = 2
)

// loadConfig loads config from path. When path is the default, a
// config.yaml in the current directory wins if present. When no file exists
// at the default path either, built-in defaults are used and the returned
// path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitFailure)
	}
	command := os.Args[1]
	switch command {
	case "build":
		runBuild()
	case "query":
		runQuery()
	case "verses":
		runVerses()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kazoeru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(exitFailure)
	}
}

// setup loads config and creates the logger every subcommand shares.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitFailure)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(exitFailure)
	}
	if resolved == "" {
		resolved = "(defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

// fail prints err and exits with the code matching its type.
func fail(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	var invalid *models.InvalidQueryError
	if errors.As(err, &invalid) {
		return exitInvalidQuery
	}
	return exitFailure
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	return format
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	source := fs.String("source", "", "scripture export to read (overrides storage.source_path)")
	out := fs.String("out", "", "index file to write (overrides storage.index_path)")
	workers := fs.Int("workers", 0, "books tokenized in parallel (0 = config)")
	compress := fs.Bool("compress", false, "xz-compress the index artifact")
	noConcordance := fs.Bool("no-concordance", false, "skip the verse store and concordance index")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *source != "" {
		cfg.Storage.SourcePath = *source
	}
	if *out != "" {
		cfg.Storage.IndexPath = *out
	}
	if *workers > 0 {
		cfg.Build.Workers = *workers
	}
	if *compress {
		cfg.Build.Compress = true
	}
	if *noConcordance {
		off := false
		cfg.Build.Concordance = &off
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fail("Failed to open storage", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := indexer.NewIndexer(cfg, store, indexer.WithLogger(logger)).Build(ctx)
	if err != nil {
		logger.Error("build failed", zap.Error(err))
		fail("Build failed", err)
	}
	fmt.Printf("Indexed %d verses (%d skipped), %d words, %d distinct\n",
		res.Stats.Verses, res.Stats.Skipped, res.Index.TotalTokens, len(res.Index.Unigrams))
	fmt.Printf("Index written to %s (build %s)\n", cfg.Storage.IndexPath, res.Record.ID)
}

// argsReorder moves flags (and their values) that follow the term to the
// front so that flag.Parse sees them; the flag package stops at the first
// positional. Positional words keep their order, so a phrase split around
// a flag is rejoined as typed. Everything after "--" is positional.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	words := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			words = append(words, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			words = append(words, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	for _, w := range words {
		if len(w) > 1 && w[0] == '-' {
			flags = append(flags, "--")
			break
		}
	}
	return append(flags, words...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// buildTerm joins positional args so that quoted and unquoted phrases
// behave the same.
func buildTerm(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	indexPath := fs.String("index", "", "index file to query (overrides storage.index_path)")
	serverURL := fs.String("server", "", "query a running server instead of the index file")
	granularity := fs.String("granularity", "", "all, by_work or by_book (default from config)")
	top := fs.Int("top", 0, "show only the first n rows (0 = all)")
	outputFormat := fs.String("format", "text", "output format: text, compact or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kazoeru query [flags] <word or phrase>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	term := buildTerm(fs.Args())
	if term == "" {
		fs.Usage()
		os.Exit(exitInvalidQuery)
	}
	format := parseFormat(*outputFormat)
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	q := &models.FrequencyQuery{Term: term, Granularity: models.Granularity(*granularity)}
	if q.Granularity == "" {
		q.Granularity = models.Granularity(cfg.Query.DefaultGranularity)
	}

	var resp *models.FrequencyResponse
	var err error
	if *serverURL != "" {
		resp, err = frequencyViaHTTP(*serverURL, q)
	} else {
		if *indexPath != "" {
			cfg.Storage.IndexPath = *indexPath
		}
		store := index.NewStore(cfg.Storage.IndexPath, index.WithStoreLogger(logger))
		resp, err = search.NewEngine(store, search.WithLogger(logger)).Query(context.Background(), q)
	}
	if err != nil {
		fail("Query failed", err)
	}
	if *top > 0 {
		resp.Rows = ranking.Top(resp.Rows, *top)
	}
	if err := cli.WriteFrequency(os.Stdout, resp, format); err != nil {
		fail("Output failed", err)
	}
}

func runVerses() {
	fs := flag.NewFlagSet("verses", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	serverURL := fs.String("server", "", "ask a running server instead of opening the concordance")
	work := fs.String("work", "", "restrict to a standard work (name or alias, e.g. OT)")
	book := fs.String("book", "", "restrict to a book")
	limit := fs.Int("limit", 0, "verses per page (default from config)")
	offset := fs.Int("offset", 0, "verses to skip")
	outputFormat := fs.String("format", "text", "output format: text, compact or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kazoeru verses [flags] <word or phrase>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	term := buildTerm(fs.Args())
	if term == "" {
		fs.Usage()
		os.Exit(exitInvalidQuery)
	}
	format := parseFormat(*outputFormat)
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	q := &models.VerseQuery{Term: term, Work: *work, Book: *book, Limit: *limit, Offset: *offset}
	var resp *models.VerseResponse
	var err error
	if *serverURL != "" {
		resp, err = versesViaHTTP(*serverURL, q)
	} else {
		var c *components
		c, err = openComponents(cfg, logger)
		if err != nil {
			fail("Failed to initialize", err)
		}
		defer c.Close()
		if c.Concordance == nil {
			fail("Verses failed", errors.New("concordance not built; run kazoeru build"))
		}
		resp, err = c.Concordance.Find(context.Background(), q)
	}
	if err != nil {
		fail("Verses failed", err)
	}
	if err := cli.WriteVerses(os.Stdout, resp, format); err != nil {
		fail("Output failed", err)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	port := fs.Int("port", 0, "listen port (overrides server.port)")
	reload := fs.Bool("reload", false, "reload the index when the artifact is rewritten")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *reload {
		cfg.Server.ReloadOnChange = true
	}

	c, err := openComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer c.Close()
	if _, err := c.Store.Get(); err != nil {
		logger.Fatal("Failed to load index", zap.Error(err))
	}

	srv := server.NewServer(c.Engine, c.Concordance, c.Store, c.Storage, cfg, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "ask a running server instead of reading the artifacts")
	outputFormat := fs.String("format", "text", "output format: text, compact or json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*outputFormat)
	var report *models.StatusReport
	var err error
	if *serverURL != "" {
		report, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		var st *storage.SQLiteStorage
		st, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fail("Failed to open storage", err)
		}
		defer st.Close()
		report, err = indexer.Status(context.Background(), cfg, index.NewStore(cfg.Storage.IndexPath), st)
	}
	if err != nil {
		fail("Status failed", err)
	}
	if err := cli.WriteStatus(os.Stdout, report, format); err != nil {
		fail("Output failed", err)
	}
}

// components are the serving dependencies shared by server and verses.
type components struct {
	Storage     *storage.SQLiteStorage
	Verses      *concordance.BleveIndex
	Store       *index.Store
	Engine      *search.Engine
	Concordance *concordance.Concordance
}

// Close releases resources held by components.
func (c *components) Close() {
	if c.Verses != nil {
		_ = c.Verses.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// openComponents opens the verse store and, when it has been built, the
// concordance index. The frequency index is loaded lazily by the Store.
func openComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	store := index.NewStore(cfg.Storage.IndexPath, index.WithStoreLogger(logger))
	c := &components{
		Storage: st,
		Store:   store,
		Engine:  search.NewEngine(store, search.WithLogger(logger)),
	}
	if !cfg.Build.ConcordanceOrDefault() {
		return c, nil
	}
	if _, err := os.Stat(cfg.Storage.BleveIndexPath); err != nil {
		logger.Warn("concordance index not found; verse lookups disabled", zap.String("path", cfg.Storage.BleveIndexPath))
		return c, nil
	}
	bi, err := concordance.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open concordance index: %w", err)
	}
	c.Verses = bi
	c.Concordance = concordance.New(st, bi,
		concordance.WithLimits(cfg.Query.ConcordanceLimit, cfg.Query.MaxConcordanceLimit),
		concordance.WithLogger(logger))
	return c, nil
}

// apiError rebuilds the typed error behind an HTTP error envelope so the
// exit code matches a local run.
func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &envelope) == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	if resp.StatusCode == http.StatusBadRequest {
		return &models.InvalidQueryError{Field: "request", Reason: msg}
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
}

func getJSON(resp *http.Response, err error, out interface{}) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func frequencyViaHTTP(serverURL string, q *models.FrequencyQuery) (*models.FrequencyResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	var out models.FrequencyResponse
	resp, err := http.Post(serverURL+"/api/v1/frequency", "application/json", bytes.NewReader(body))
	if err := getJSON(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func versesViaHTTP(serverURL string, q *models.VerseQuery) (*models.VerseResponse, error) {
	params := url.Values{"q": {q.Term}}
	if q.Work != "" {
		params.Set("work", q.Work)
	}
	if q.Book != "" {
		params.Set("book", q.Book)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	var out models.VerseResponse
	resp, err := http.Get(serverURL + "/api/v1/verses?" + params.Encode())
	if err := getJSON(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func statusViaHTTP(serverURL string) (*models.StatusReport, error) {
	var out models.StatusReport
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err := getJSON(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func printUsage() {
	fmt.Println(`kazoeru - word and phrase frequencies across the standard works

Usage:
  kazoeru build [flags]             Build the frequency index (and verse concordance)
  kazoeru query [flags] <term>      Count a word or exact phrase per scope
  kazoeru verses [flags] <term>     List the verses containing a word or phrase
  kazoeru server [flags]            Start the HTTP server
  kazoeru status [flags]            Show index totals, last build and disk usage
  kazoeru version                   Show version
  kazoeru help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kazoeru/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging
  --format string    Output format: text, compact or json (query, verses, status)
  --server string    Ask a running server (e.g. http://localhost:8080)

Build Flags:
  --source string    Scripture export (.json or .json.xz)
  --out string       Index file to write
  --workers int      Books tokenized in parallel
  --compress         xz-compress the index
  --no-concordance   Skip the verse store and concordance index

Query Flags:
  --granularity string  all, by_work or by_book
  --top int             Show only the first n rows
  --index string        Index file to query

Verses Flags:
  --work string      Standard work (name or alias: OT, NT, BofM, D&C, PGP)
  --book string      Book
  --limit int        Verses per page
  --offset int       Verses to skip

Examples:
  kazoeru build
  kazoeru query faith
  kazoeru query -granularity by_book "and it came to pass"
  kazoeru query -format json charity
  kazoeru verses -work BofM "faith hope charity"
  kazoeru server -reload
  kazoeru status`)
}
