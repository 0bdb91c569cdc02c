package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amzx/internal/pacing"
	"github.com/desertthunder/amzx/internal/repositories"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/desertthunder/amzx/internal/tasks"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Catalog services and the database are built from the loaded config on first use unless injected.
type Runner struct {
	config     *shared.Config
	configured bool
	source     services.Source
	dest       tasks.Destination
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Source      services.Source
	Destination tasks.Destination
	DB          *sql.DB
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configured: opts.Config != nil,
		source:     opts.Source,
		dest:       opts.Destination,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r
}

// SetLogger replaces the logger used by commands and every service built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, fetchCommand, searchCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure applies the global flags: --verbose sets debug logging and --config loads the file once.
//
// A missing default config file falls back to the embedded defaults; a missing explicit one is an error.
// AMZX_* credentials from the environment or a .env file override the file.
func (r *Runner) configure(cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.configured {
		return r.config.Migration.Validate()
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", path)
	} else if cmd.IsSet("config") {
		return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := shared.LoadEnv(); err != nil {
		return err
	}
	r.config.ApplyEnv()
	r.configured = true

	return r.config.Migration.Validate()
}

func (r *Runner) client() (*http.Client, error) {
	if r.httpClient != nil {
		return r.httpClient, nil
	}
	timeout, err := r.config.HTTP.ClientTimeout()
	if err != nil {
		return nil, err
	}
	r.httpClient = &http.Client{Timeout: timeout}
	return r.httpClient, nil
}

// amazon returns the source catalog, paced between pages with the given strategy.
func (r *Runner) amazon(strategy pacing.Strategy) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}

	interval, err := r.config.Migration.PageInterval()
	if err != nil {
		return nil, err
	}
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	creds := r.config.Credentials.Amazon
	svc, err := services.NewAmazonService(services.AmazonOpts{
		BaseURL:    creds.BaseURL,
		Token:      creds.Token,
		APIKey:     creds.APIKey,
		Pacer:      pacing.New(strategy, interval, r.logger),
		HTTPClient: client,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Amazon Music service: %w", err)
	}
	r.source = svc
	return svc, nil
}

// spotify returns the authenticated destination catalog. A non-nil pacer observes its responses.
func (r *Runner) spotify(ctx context.Context, pacer *pacing.Pacer) (tasks.Destination, error) {
	if r.dest != nil {
		return r.dest, nil
	}

	client, err := r.client()
	if err != nil {
		return nil, err
	}

	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
		"redirect_uri":  creds.RedirectURI,
		"base_url":      creds.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	svc.SetHTTPClient(client)
	if pacer != nil {
		svc.SetPacer(pacer)
	}

	if err := svc.Authenticate(ctx, map[string]string{
		"access_token":  creds.AccessToken,
		"refresh_token": creds.RefreshToken,
	}); err != nil {
		return nil, fmt.Errorf("spotify authentication failed: %w", err)
	}
	r.dest = svc
	return svc, nil
}

// lock takes an exclusive lock beside the history database so two migrations never share it.
// In-memory databases are not locked.
func (r *Runner) lock() (func(), error) {
	path := r.config.Database.Path
	if path == "" || path == ":memory:" {
		return func() {}, nil
	}

	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", shared.ErrMigrationInProgress, path)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			r.logger.Warn("failed to release migration lock", "error", err)
		}
	}, nil
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// engine wires both catalogs, the batch pacer, and migration history into a [tasks.MigrationEngine].
//
// History is optional: when the database cannot be opened the run proceeds without it.
func (r *Runner) engine(ctx context.Context, strategy pacing.Strategy) (*tasks.MigrationEngine, services.Source, error) {
	interval, err := r.config.Migration.BatchInterval()
	if err != nil {
		return nil, nil, err
	}
	batchPacer := pacing.New(strategy, interval, r.logger)

	source, err := r.amazon(strategy)
	if err != nil {
		return nil, nil, err
	}
	dest, err := r.spotify(ctx, batchPacer)
	if err != nil {
		return nil, nil, err
	}

	engine := tasks.NewMigrationEngine(source, dest, tasks.EngineOpts{
		BatchSize:   r.config.Migration.BatchSize,
		BatchPacer:  batchPacer,
		Description: r.config.Migration.Description,
		Public:      r.config.Migration.Public,
		Logger:      r.logger,
	})

	if db, err := r.database(); err != nil {
		r.logger.Warn("migration history disabled", "error", err)
	} else {
		engine.SetRecorder(repositories.NewHistoryRecorder(repositories.NewMigrationRepository(db)))
		engine.SetTrackCacher(repositories.NewMatchCacheAdapter(repositories.NewMatchRepository(db)))
	}
	return engine, source, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
