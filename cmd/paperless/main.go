package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paperless/internal/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := a.root().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", client.Describe(err))
		os.Exit(1)
	}
}

type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper

	session *client.Session
	api     *client.Client
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("paperless")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return &app{in: bufio.NewReader(in), out: out, errOut: errOut, v: v}
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "paperless",
		Short:         "Command line client for the Paperless System API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect()
		},
	}
	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:4000", "API server URL (env PAPERLESS_SERVER)")
	flags.String("session-file", "", "where the login session is kept (env PAPERLESS_SESSION_FILE)")
	flags.Duration("timeout", client.DefaultTimeout, "request timeout (env PAPERLESS_TIMEOUT)")
	_ = a.v.BindPFlag("server", flags.Lookup("server"))
	_ = a.v.BindPFlag("session-file", flags.Lookup("session-file"))
	_ = a.v.BindPFlag("timeout", flags.Lookup("timeout"))

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.dashboardCmd(),
		a.documentsCmd(),
		a.showCmd(),
		a.uploadCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.downloadCmd(),
		a.decisionCmd("approve", "approved"),
		a.decisionCmd("reject", "rejected"),
		a.printCmd(),
		a.usersCmd(),
		a.healthCmd(),
	)
	return root
}

// connect restores the session and builds the API client.
func (a *app) connect() error {
	path := a.v.GetString("session-file")
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return fmt.Errorf("locate session file: %w", err)
		}
	}
	a.session = client.NewSession(&client.FileStore{Path: path})
	if err := a.session.Init(); err != nil {
		fmt.Fprintln(a.errOut, "Warning: discarded unreadable session:", err)
	}

	timeout := a.v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = client.DefaultTimeout
	}
	a.api = client.New(a.v.GetString("server"), a.session, client.WithTimeout(timeout))
	return nil
}

func (a *app) guard(view client.View) error {
	return client.Guard(a.session, view)
}

// prompt reads one line from stdin when value is empty.
func (a *app) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func formatUptime(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
