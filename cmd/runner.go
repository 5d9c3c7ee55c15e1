package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/repositories"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/desertthunder/xfer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// searchCache is a [services.SearchCache] that can also be emptied.
type searchCache interface {
	services.SearchCache
	Clear(ctx context.Context, platform models.Platform) (int64, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	registry *services.Registry
	cache    searchCache
	logger   *log.Logger
	output   io.Writer

	mu      sync.Mutex
	authed  map[models.Platform]bool
	closers []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Registry is built from the configuration in [Runner.Configure].
type RunnerOpts struct {
	Config   *shared.Config
	Registry *services.Registry
	Cache    searchCache
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		registry: opts.Registry,
		cache:    opts.Cache,
		logger:   opts.Logger,
		output:   opts.Output,
		authed:   map[models.Platform]bool{},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, playlistsCommand, matchCommand, transferCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads .env and the config file, then builds the service registry.
//
// It runs before every command. A missing config file falls back to the embedded defaults;
// an unreadable or invalid one is an error.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.registry != nil {
		return ctx, nil
	}

	if err := shared.LoadEnv(cmd.String("env-file")); err != nil {
		return ctx, fmt.Errorf("%w: failed to load env file: %v", shared.ErrInvalidConfig, err)
	}

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", configPath)
	}

	r.config.ApplyEnv()
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level := r.config.Log.ParsedLevel()
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	r.registry = buildRegistry(r.config, r.logger)
	r.logger.Debug("services available", "platforms", r.registry.Available())
	return ctx, nil
}

// Close releases the cache connections opened by commands.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// SetLogger replaces the runner logger, for instance to redirect logs while a TUI is running.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// service returns the authenticated service for the platform named name.
func (r *Runner) service(ctx context.Context, name string) (services.Service, error) {
	if r.registry == nil {
		return nil, fmt.Errorf("%w: no services configured", shared.ErrServiceUnavailable)
	}
	svc, err := r.registry.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w (configured: %v)", err, r.registry.Available())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.authed[svc.Platform()] {
		return svc, nil
	}

	creds := credentials(r.config, svc.Platform())
	if svc.Platform() == models.YouTube && creds["auth_file"] == "" {
		r.logger.Debug("no YouTube Music headers configured, search only")
	} else if err := svc.Authenticate(ctx, creds); err != nil {
		return nil, fmt.Errorf("%s: %w", svc.Name(), err)
	}
	r.authed[svc.Platform()] = true
	return svc, nil
}

// searchCache opens the configured cache backend once. A nil cache means caching is off.
func (r *Runner) searchCache(ctx context.Context) (searchCache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil {
		return r.cache, nil
	}

	ttl := r.config.Cache.TTL.Duration
	switch r.config.Cache.Backend {
	case shared.CacheSQLite:
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, db)
		r.cache = repositories.NewSearchCacheRepository(db, ttl)
	case shared.CacheRedis:
		cache, err := repositories.OpenRedisSearchCache(ctx, r.config.Cache.RedisURL, ttl)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, cache)
		r.cache = cache
	default:
		return nil, nil
	}

	r.logger.Debug("search cache opened", "backend", r.config.Cache.Backend)
	return r.cache, nil
}

// searcher wraps dest with the search cache. Cache failures only disable caching.
func (r *Runner) searcher(ctx context.Context, dest services.Service, noCache bool) services.Searcher {
	if noCache {
		return dest
	}
	cache, err := r.searchCache(ctx)
	if err != nil {
		r.logger.Warn("search cache unavailable, continuing without it", "error", err)
		return dest
	}
	if cache == nil {
		return dest
	}
	return services.NewCachedSearcher(dest, dest.Platform(), cache, r.logger)
}

// sessionOptions maps the [matching] config section onto [tasks.SessionOptions].
func (r *Runner) sessionOptions() tasks.SessionOptions {
	opts := tasks.DefaultSessionOptions()
	m := r.config.Matching
	if m.SearchLimit > 0 {
		opts.Limit = m.SearchLimit
	}
	opts.TrackDelay = m.TrackDelay()
	opts.EnrichSuggestions = m.EnrichSuggestions
	opts.ErrorWarnThreshold = m.ErrorWarnThreshold
	return opts
}

// engine builds a [tasks.TransferEngine] between the platforms named by the --from and --to flags.
func (r *Runner) engine(ctx context.Context, cmd *cli.Command) (*tasks.TransferEngine, error) {
	from, to := cmd.String("from"), cmd.String("to")
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: --from and --to are required", shared.ErrMissingArgument)
	}

	source, err := r.service(ctx, from)
	if err != nil {
		return nil, err
	}
	dest, err := r.service(ctx, to)
	if err != nil {
		return nil, err
	}
	if source.Platform() == dest.Platform() {
		return nil, fmt.Errorf("%w: source and destination are both %s", shared.ErrInvalidArgument, source.Name())
	}

	searcher := r.searcher(ctx, dest, cmd.Bool("no-cache"))
	return tasks.NewTransferEngine(source, dest, searcher, r.sessionOptions(), r.logger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
