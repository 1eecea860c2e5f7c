package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CrisisTextLine/userfetch"
	"github.com/CrisisTextLine/userfetch/feeders"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Feeder priorities: file < environment < flags.
const (
	filePriority = 0
	envPriority  = 10
	flagPriority = 100
)

// flagFeeder applies explicitly set command line flags on top of the other feeders.
type flagFeeder struct {
	baseURL   string
	userAgent string
}

func (f *flagFeeder) Feed(structure any) error {
	settings, ok := structure.(*userfetch.Settings)
	if !ok {
		return nil
	}
	if f.baseURL != "" {
		settings.BaseURL = f.baseURL
	}
	if f.userAgent != "" {
		settings.UserAgent = f.userAgent
	}
	return nil
}

func (f *flagFeeder) Priority() int { return flagPriority }

type getOptions struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	raw       bool
	verbose   bool
}

// NewGetCommand creates the get command
func NewGetCommand(global *globalOptions) *cobra.Command {
	opts := &getOptions{}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch the users collection once",
		Long: `Fetch <base-url>/users and print the JSON body.

Exit status is non-zero when the service answers with a non-success status
or when the request cannot be made at all.

Examples:
  BASE_URL=https://jsonplaceholder.typicode.com/ userfetch get
  userfetch get --base-url http://localhost:8080/
  userfetch get -c config.yaml --raw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, global, opts)
		},
	}

	getCmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL of the user service (overrides BASE_URL)")
	getCmd.Flags().StringVar(&opts.userAgent, "user-agent", "", "User-Agent header")
	getCmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	getCmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the body exactly as received")
	getCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log request details and fetch events")

	return getCmd
}

func buildFeeders(global *globalOptions, opts *getOptions) ([]userfetch.Feeder, error) {
	fs := make([]userfetch.Feeder, 0, 3)
	if global.configFile != "" {
		switch f := feeders.NewFileFeeder(global.configFile).(type) {
		case *feeders.YamlFeeder:
			fs = append(fs, f.WithPriority(filePriority))
		case *feeders.TomlFeeder:
			fs = append(fs, f.WithPriority(filePriority))
		case *feeders.JSONFeeder:
			fs = append(fs, f.WithPriority(filePriority))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfig, global.configFile)
		}
	}
	fs = append(fs,
		feeders.NewEnvFeeder().WithPriority(envPriority),
		&flagFeeder{baseURL: opts.baseURL, userAgent: opts.userAgent},
	)
	return fs, nil
}

func runGet(cmd *cobra.Command, global *globalOptions, opts *getOptions) error {
	logger, err := newLogger(cmd.ErrOrStderr(), global.logLevel, global.logFormat)
	if err != nil {
		return err
	}

	fs, err := buildFeeders(global, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := userfetch.NewSettingsLoader(fs...).SetVerboseDebug(opts.verbose, logger)
	settings, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	client, err := userfetch.New(settings,
		userfetch.WithLogger(logger),
		userfetch.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
		userfetch.WithVerbose(opts.verbose || settings.Verbose),
	)
	if err != nil {
		return err
	}

	if opts.verbose {
		err := client.RegisterObserver(userfetch.NewFunctionalObserver("cli", func(_ context.Context, event cloudevents.Event) error {
			logger.Debug("Fetch event", "type", event.Type(), "id", event.ID())
			return nil
		}))
		if err != nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	resp, err := client.GetUsers(ctx)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "request failed: %v\n", err)
		return err
	}
	if resp == nil {
		color.New(color.FgYellow).Fprintf(stderr, "no users: %s\n", client.UsersURL())
		return ErrUsersAbsent
	}

	users, err := resp.Users()
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(stderr, "%s %s (%d users)\n", resp.Status, client.UsersURL(), len(users))

	out := resp.Body
	if !opts.raw {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Body, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
