package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalFlags struct {
	configPath string
	debug      bool
	apiURL     string
	wsURL      string
	token      string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "vdock",
		Short:         "vdock drives a virtual stream deck",
		Long:          `vdock keeps a deck of programmable buttons, runs their actions on a remote executor and switches scenes to follow the focused application.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config.yaml (default $XDG_CONFIG_HOME/vdock/config.yaml)")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.StringVar(&flags.apiURL, "api-url", "", "base URL of the vdock server API")
	pf.StringVar(&flags.wsURL, "ws-url", "", "websocket URL of the action channel")
	pf.StringVar(&flags.token, "token", "", "auth token")

	root.AddCommand(newRunCmd(&flags), newExecCmd(&flags), newProfilesCmd(&flags))
	return root
}

// setup loads the config, applies flags that were set and builds the logger.
func setup(cmd *cobra.Command, flags *globalFlags) (config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("debug") {
		cfg.Debug = flags.debug
	}
	if changed("api-url") {
		cfg.Server.APIURL = flags.apiURL
	}
	if changed("ws-url") {
		cfg.Server.WebSocketURL = flags.wsURL
	}
	if changed("token") {
		cfg.Server.Token = flags.token
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return cfg, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, log, nil
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		listen       string
		source       string
		noAutoSwitch bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the deck daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			if cmd.Flags().Changed("status-listen") {
				cfg.Status.Listen = listen
			}
			if cmd.Flags().Changed("source") {
				cfg.Monitor.Source = source
			}
			if noAutoSwitch {
				cfg.Monitor.AutoSwitch = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().StringVar(&listen, "status-listen", "", "address of the local status API")
	cmd.Flags().StringVar(&source, "source", "", "foreground app source: remote or hyprland")
	cmd.Flags().BoolVar(&noAutoSwitch, "no-auto-switch", false, "do not switch scenes automatically")

	return cmd
}

func newExecCmd(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "exec KIND [CONFIG_JSON]",
		Short: "Execute a single action and print the result",
		Example: `  vdock exec hotkey '{"keys":["ctrl","shift","m"]}'
  vdock exec system_control '{"action":"volume_up"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			raw := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &raw); err != nil {
					return fmt.Errorf("parse action config: %w", err)
				}
			}
			a, err := action.New(action.Kind(args[0]), raw)
			if err != nil {
				return fmt.Errorf("build action: %w", err)
			}
			if a.IsLocal() {
				return fmt.Errorf("%s only makes sense inside a running deck", a.Kind)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := newClient(ctx, cfg, log)
			if err != nil {
				return err
			}
			dispatcher := newDispatcher(cfg, client, nil, log)
			if err := dispatcher.Connect(ctx, client.Token()); err != nil {
				log.Debugw("action channel unavailable, using http fallback", "error", err)
			}
			defer dispatcher.Disconnect()

			result, err := dispatcher.ExecuteAction(ctx, a)
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 35*time.Second, "overall time limit")

	return cmd
}

func newProfilesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles stored on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			client, err := newClient(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}

			profiles, err := client.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPAGES\tDESCRIPTION")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.PageCount, p.Description)
			}
			return w.Flush()
		},
	}
}
