package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ci2/internal/app"
	"ci2/internal/config"
	"ci2/internal/logging"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if ex, ok := err.(ExitCoder); ok {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	jsonOutput bool
	verbose    bool
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	var logger *zap.Logger

	newSvc := func() (*app.Service, error) {
		if logger == nil {
			l, err := buildLogger(flags)
			if err != nil {
				return nil, err
			}
			logger = l
		}
		return app.New(app.Options{ConfigPath: flags.configPath, Logger: logger}), nil
	}

	cmd := &cobra.Command{
		Use:           "ci2",
		Short:         "CI2 collection scaffold: resolve project storage and write run artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to paths.yaml (default $CI2_HOME/config/paths.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: console|json")

	cmd.AddCommand(newCollectCmd(newSvc, &flags.jsonOutput))
	cmd.AddCommand(newCheckCmd(newSvc, &flags.jsonOutput))
	cmd.AddCommand(newPathsCmd(newSvc, &flags.jsonOutput))
	cmd.AddCommand(newRunsCmd(newSvc, &flags.jsonOutput))
	cmd.AddCommand(newVersionCmd(&flags.jsonOutput))

	return cmd
}

// buildLogger applies the config file's logging section under the flags.
// A config that fails to load is left for the command itself to report.
func buildLogger(flags rootFlags) (*zap.Logger, error) {
	opts := logging.Options{Format: flags.logFormat, Verbose: flags.verbose}
	if doc, err := config.Load(flags.configPath); err == nil {
		opts.Level = doc.Logging.Level
		if opts.Format == "" {
			opts.Format = doc.Logging.Format
		}
	}
	return logging.New(opts)
}

func newCollectCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var req app.CollectRequest
	cmd := &cobra.Command{
		Use:     "collect",
		Aliases: []string{"run"},
		Short:   "Write one run's data file and manifest for a firm and month",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(req.Firm) == "" {
				return fmt.Errorf("--firm must not be blank")
			}
			if strings.TrimSpace(req.Month) == "" {
				return fmt.Errorf("--month must not be blank")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Collect(context.Background(), req)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			st := newStyles()
			fmt.Println(st.ok("micro collect complete"))
			fmt.Println("Output dir:", res.OutDir)
			fmt.Println("CSV:", filepath.Base(res.DataFile))
			fmt.Println("Manifest:", filepath.Base(res.ManifestFile))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Project, "project", app.DefaultProject, "project key in config/paths.yaml")
	cmd.Flags().StringVar(&req.Firm, "firm", "", `firm name, e.g. "Citadel"`)
	cmd.Flags().StringVar(&req.Month, "month", "", `month in YYYY-MM, e.g. "2025-01"`)
	cmd.Flags().StringVar(&req.Notes, "notes", "", "free-text notes recorded in the manifest")
	_ = cmd.MarkFlagRequired("firm")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func newCheckCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var opts app.CheckOptions
	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"doctor", "smoke"},
		Short:   "Verify the drive layout and secrets file before collecting",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Check(context.Background(), opts)
			if err != nil {
				return err
			}
			if *jsonOutput {
				if err := print(true, res, ""); err != nil {
					return err
				}
			} else {
				renderCheck(newStyles(), res)
			}
			if !res.Report.Healthy {
				return &exitError{code: 2, msg: "environment check failed"}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Create, "create", false, "create missing layout directories under an existing root first")
	return cmd
}

func newPathsCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Show resolved storage and secrets locations for a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Paths(project)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			fmt.Printf("config:  %s\nproject: %s\ndb:      %s\noutputs: %s\nsecrets: %s\n",
				res.ConfigPath, res.Project, res.DB, res.Outputs, res.SecretsPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", app.DefaultProject, "project key in config/paths.yaml")
	return cmd
}

func newRunsCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var project, firm, month string
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"ls"},
		Short:   "List recorded runs for a firm and month",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			manifests, err := svc.Runs(project, strings.TrimSpace(firm), strings.TrimSpace(month))
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, manifests, "")
			}
			if len(manifests) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, m := range manifests {
				fmt.Printf("- %s %s %s\n", m.Token, m.CreatedUTC.Format("2006-01-02T15:04:05Z07:00"), m.Notes)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", app.DefaultProject, "project key in config/paths.yaml")
	cmd.Flags().StringVar(&firm, "firm", "", "firm name")
	cmd.Flags().StringVar(&month, "month", "", "month in YYYY-MM")
	_ = cmd.MarkFlagRequired("firm")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func newVersionCmd(jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"version": version,
				"commit":  commit,
				"date":    date,
			}
			if *jsonOutput {
				return print(true, info, "")
			}
			fmt.Printf("ci2 %s\ncommit: %s\nbuilt at: %s\n", version, commit, date)
			return nil
		},
	}
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
