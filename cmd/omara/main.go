package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/config"
	"github.com/erazemk/omara/internal/logging"
	"github.com/erazemk/omara/internal/mutation"
	"github.com/erazemk/omara/internal/session"
	"github.com/erazemk/omara/internal/wardrobe"
)

var errNotLoggedIn = errors.New("not logged in; run 'omara login'")

// globals holds the persistent flags.
type globals struct {
	configPath string
	apiURL     string
	debug      bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "omara",
		Short: "omara - manage your wardrobe from the terminal",
		Long: `omara talks to an omara server to keep track of your clothes.

Examples:
  # Sign in
  omara login --email ana@example.com

  # Add a shirt with a photo
  omara add --name "Oxford shirt" --category shirt --color Blue --image shirt.jpg

  # List blue shirts
  omara list --category shirt --color Blue

  # Filter interactively
  omara browse`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultPath(), "Config file path")
	root.PersistentFlags().StringVar(&g.apiURL, "api-url", "", "API base URL (overrides config and "+config.EnvAPIURL+")")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log requests and cache activity")

	root.AddCommand(
		newLoginCmd(g),
		newRegisterCmd(g),
		newLogoutCmd(g),
		newStatusCmd(g),
		newListCmd(g),
		newShowCmd(g),
		newAddCmd(g),
		newEditCmd(g),
		newRmCmd(g),
		newBrowseCmd(g),
	)
	return root
}

// cliSession is what a command runs against.
type cliSession struct {
	cfg *config.Config
	app *wardrobe.App
	log *zap.Logger

	closeLog func()
}

func (s *cliSession) Close() {
	s.app.Close()
	s.closeLog()
}

// open loads the configuration and resolves the saved session.
func (g *globals) open(cmd *cobra.Command) (*cliSession, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.apiURL != "" {
		cfg.APIURL = g.apiURL
	}

	log, closeLog := zap.NewNop(), func() {}
	if g.debug || cfg.Debug {
		log, closeLog, err = logging.New(logging.Options{Debug: true, Console: true, StderrOnly: true})
		if err != nil {
			return nil, err
		}
	}

	timeout, _ := cfg.Timeout()
	delay, _ := cfg.DebounceDelay()

	stderr := cmd.ErrOrStderr()
	app, err := wardrobe.New(wardrobe.Options{
		APIURL:   cfg.APIURL,
		Tokens:   session.NewFileTokenStore(cfg.TokenFile),
		Timeout:  timeout,
		Debounce: delay,
		Notifier: mutation.NotifierFunc(func(op mutation.Op, _ error) {
			fmt.Fprintln(stderr, mutation.FailureMessage(op))
		}),
		Logger: log,
	})
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := app.Init(); err != nil {
		log.Warn("saved session unreadable", zap.Error(err))
	}

	return &cliSession{cfg: cfg, app: app, log: log, closeLog: closeLog}, nil
}

// requireAuth opens a session and fails unless it is signed in.
func (g *globals) requireAuth(cmd *cobra.Command) (*cliSession, error) {
	s, err := g.open(cmd)
	if err != nil {
		return nil, err
	}
	if !s.app.Guard.CanFetch() {
		s.Close()
		return nil, errNotLoggedIn
	}
	return s, nil
}

// explain rewrites an error after an authenticated call.
func (s *cliSession) explain(err error) error {
	if s.app.CheckAuth(err) {
		return errors.New("session expired; run 'omara login'")
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
