package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytfm/internal/services"
	"github.com/desertthunder/ytfm/internal/shared"
	"github.com/desertthunder/ytfm/internal/tasks"
	"github.com/desertthunder/ytfm/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	getenv     func(string) string
	youtube    services.HistoryService
	lastfm     services.ScrobbleService
	confirmer  tasks.Confirmer
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	now        func() time.Time
	color      bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services left nil are built from the configuration on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Getenv     func(string) string
	YouTube    services.HistoryService
	LastFM     services.ScrobbleService
	Confirmer  tasks.Confirmer
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		getenv:     opts.Getenv,
		youtube:    opts.YouTube,
		lastfm:     opts.LastFM,
		confirmer:  opts.Confirmer,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
		now:        opts.Now,
		color:      isTerminal(opts.Output),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, diffCommand, authCommand, setupCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration once per process.
//
// A missing file falls back to the embedded defaults. YTFM_* variables, including those from the
// dotenv file named by --env, override credentials.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	if err := shared.LoadEnv(cmd.String("env")); err != nil {
		return nil, err
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Warn("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	case err != nil:
		return nil, err
	}

	config.ApplyEnv(r.getenv)
	r.config = config
	r.configPath = path
	return config, nil
}

// historyService builds the YouTube Music client, authenticated with the stored Google token when one exists.
func (r *Runner) historyService(ctx context.Context, config *shared.Config) (services.HistoryService, error) {
	if r.youtube != nil {
		return r.youtube, nil
	}

	svc, err := r.youtubeService(ctx, config)
	if err != nil {
		return nil, err
	}
	r.youtube = svc
	return svc, nil
}

func (r *Runner) youtubeService(ctx context.Context, config *shared.Config) (*services.YouTubeService, error) {
	yt := config.Credentials.YouTube
	client := r.httpClient

	if yt.TokenPath != "" {
		if _, err := os.Stat(yt.TokenPath); err == nil {
			auth, err := services.NewGoogleAuth(yt.ClientSecretPath, yt.TokenPath)
			if err != nil {
				return nil, err
			}
			if client, err = auth.Client(ctx); err != nil {
				return nil, err
			}
			r.logger.Debug("using Google token", "path", yt.TokenPath)
		}
	}

	svc := services.NewYouTubeService(yt.ProxyURL, client)
	if yt.HeadersPath != "" {
		if err := svc.Authenticate(ctx, map[string]string{"auth_file": yt.HeadersPath}); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// scrobbleService builds and authenticates the Last.fm client.
func (r *Runner) scrobbleService(ctx context.Context, config *shared.Config) (services.ScrobbleService, error) {
	if r.lastfm != nil {
		return r.lastfm, nil
	}

	svc, err := r.lastfmService(ctx, config)
	if err != nil {
		return nil, err
	}
	r.lastfm = svc
	return svc, nil
}

func (r *Runner) lastfmService(ctx context.Context, config *shared.Config) (*services.LastFMService, error) {
	creds := config.Credentials.LastFM.Map()

	svc, err := services.NewLastFMService(creds)
	if err != nil {
		return nil, err
	}
	svc.WithHTTPClient(r.httpClient).WithRateLimit(config.Sync.RequestsPerSecond)

	if err := svc.Authenticate(ctx, creds); err != nil {
		return nil, err
	}
	r.logger.Debug("authenticated", "service", svc.Name(), "user", config.Credentials.LastFM.Username)
	return svc, nil
}

// confirmerFor picks the bubbletea prompt on a terminal and the line reader otherwise.
func (r *Runner) confirmerFor() tasks.Confirmer {
	if r.confirmer != nil {
		return r.confirmer
	}
	if isTerminal(r.input) && isTerminal(r.output) {
		return ui.NewPromptConfirmer(r.input, r.output)
	}
	return ui.NewLineConfirmer(r.input, r.output)
}

// saveSessionKey stores a Last.fm session key in the loaded config and writes it back to disk.
func (r *Runner) saveSessionKey(key string) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if key == "" {
		return fmt.Errorf("%w: empty session key", shared.ErrAuthFailed)
	}

	r.config.Credentials.LastFM.SessionKey = key
	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
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

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
