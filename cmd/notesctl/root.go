package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/notesapi"
	"github.com/spf13/cobra"
)

const (
	outputTable string = "table"
	outputYAML  string = "yaml"
)

// app is what every command needs, it is set up before any command runs
type app struct {
	config          config.Config
	store           credentials.Store
	api             *authclient.Client
	services        *notesapi.Services
	output          string
	debug           bool
	credentialsFile string
	reader          *bufio.Reader
}

// Execute runs the command line and returns the exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	rootCmd, a := createRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	err := rootCmd.ExecuteContext(ctx)
	if a.services != nil {
		a.services.Uploads.Wait()
	}
	if err == nil {
		return 0
	}
	if errors.Is(err, gwerrors.ErrRefreshFailed) {
		rootCmd.PrintErrln("Your session has ended. Run `notesctl login` to sign in again.")
		return 1
	}
	rootCmd.PrintErrln("Error:", err)
	return 1
}

func createRootCmd() (*cobra.Command, *app) {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "notesctl",
		Short:         "Work with your notes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputTable, "Output format [table, yaml]")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log the requests made to the backend")
	rootCmd.PersistentFlags().StringVar(&a.credentialsFile, "credentials-file", "", "Where the credentials are kept")

	rootCmd.AddCommand(
		loginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		statusCmd(a),
		passwordResetCmd(a),
		workspacesCmd(a),
		notesCmd(a),
		uploadCmd(a),
		chatCmd(a),
		profileCmd(a),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	return rootCmd, a
}

func (a *app) setup(logOutput io.Writer) error {
	if a.output != outputTable && a.output != outputYAML {
		return fmt.Errorf("unknown output format %q", a.output)
	}
	level := slog.LevelWarn
	if a.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level})))

	cfg, err := config.NewConfigHandler().Config()
	if err != nil {
		return fmt.Errorf("cannot load the configuration: %w", err)
	}
	a.config = cfg
	// the CLI keeps the credentials between runs, unlike the server whose default is memory
	if a.credentialsFile != "" || cfg.Credentials.Type == config.CredentialsTypeMemory {
		a.config.Credentials.Type = config.CredentialsTypeFile
		a.config.Credentials.FilePath = a.credentialsFile
	}
	if a.config.Credentials.Type == config.CredentialsTypeFile && a.config.Credentials.FilePath == "" {
		path, err := credentials.DefaultFilePath()
		if err != nil {
			return err
		}
		a.config.Credentials.FilePath = path
	}
	a.store, err = credentials.NewStore(a.config.Credentials, a.config.Redis)
	if err != nil {
		return err
	}
	a.api, err = authclient.NewClient(
		authclient.WithConfig(a.config.API),
		authclient.WithCredentialStore(a.store),
		authclient.WithSignOutHandler(func(ctx context.Context, err error) {
			slog.Debug("NOTESCTL", "message", "the stored credentials were cleared", "error", err)
		}),
	)
	if err != nil {
		return err
	}
	a.services, err = notesapi.NewServices(a.api, a.store, a.config)
	return err
}
