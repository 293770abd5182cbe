// Command marketdesk is the operator CLI of the marketplace console. It drives
// the same view models as the web console against the marketplace API and
// keeps its sign-in in a local state file between runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/session"
	"marketdesk/internal/application/workspace"
	"marketdesk/internal/config"
	"marketdesk/internal/infrastructure/marketapi"
	"marketdesk/internal/pkg/logging"

	"github.com/spf13/cobra"
)

const cliSessionID = "cli"

var errSignedOut = errors.New("not signed in, run `marketdesk login` first")

// console is the state shared by every subcommand of one invocation.
type console struct {
	apiURL    string
	statePath string
	assumeYes bool
	verbose   bool

	registry *workspace.Registry
	ws       *workspace.Workspace
	ui       feedback.UI
	out      io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	con := &console{}
	root := &cobra.Command{
		Use:           "marketdesk",
		Short:         "Operator CLI for the marketplace console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return con.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return con.close()
		},
	}
	root.PersistentFlags().StringVar(&con.apiURL, "api-url", "", "marketplace API base URL (default UPSTREAM_API_URL)")
	root.PersistentFlags().StringVar(&con.statePath, "state", "", "session state file (default ~/.marketdesk/session.json)")
	root.PersistentFlags().BoolVarP(&con.assumeYes, "yes", "y", false, "answer yes to every confirmation")
	root.PersistentFlags().BoolVarP(&con.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoginCmd(con),
		newLogoutCmd(con),
		newWhoamiCmd(con),
		newLeadsCmd(con),
		newListingsCmd(con),
		newAdminCmd(con),
	)
	return root
}

func (c *console) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logging.Configure(cmd.ErrOrStderr(), level, false)

	if c.apiURL == "" {
		c.apiURL = cfg.UpstreamURL
	}
	if c.statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		c.statePath = filepath.Join(home, ".marketdesk", "session.json")
	}
	c.registry = workspace.NewRegistry(workspace.Options{
		NewClient: func() *marketapi.Client { return marketapi.New(c.apiURL, cfg.UpstreamTimeout, cfg.UpstreamRPS) },
		Debounce:  cfg.SearchDebounce,
	})
	c.ws, _ = c.registry.Get(cliSessionID)
	if err := loadState(c.statePath, c.ws); err != nil {
		return err
	}

	c.out = cmd.OutOrStdout()
	var confirmer feedback.Confirmer = feedback.TerminalConfirmer{In: cmd.InOrStdin(), Out: c.out}
	if c.assumeYes {
		confirmer = feedback.StaticConfirmer(true)
	}
	c.ui = feedback.UI{Confirmer: confirmer, Notifier: feedback.WriterNotifier{W: cmd.ErrOrStderr()}}
	return nil
}

func (c *console) close() error {
	if c.registry == nil {
		return nil
	}
	defer c.registry.Close()
	return saveState(c.statePath, c.ws)
}

// require resolves the session and checks the role like the web route guard.
func (c *console) require(ctx context.Context, role string) error {
	st := c.ws.Session.Init(ctx)
	if session.Guard(st, role).Outcome == session.Allow {
		return nil
	}
	if _, signedIn := st.(session.Authenticated); signedIn {
		return fmt.Errorf("this command needs the %s role", role)
	}
	return errSignedOut
}
