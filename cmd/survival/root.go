package main

import (
	"github.com/aouyang1/go-survival"
	"github.com/aouyang1/go-survival/config"
	"github.com/aouyang1/go-survival/internal/logging"
	"github.com/aouyang1/go-survival/store"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags
var version = "dev"

type app struct {
	configPath string
	logLevel   string
	dbPath     string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := new(app)
	cmd := &cobra.Command{
		Use:           "survival",
		Short:         "Bayesian exponential survival models with horizon truncated predictions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&a.logLevel, "log-level", "", "Log level overriding the config (debug, info, warn, error)")
	f.StringVar(&a.dbPath, "db", "", "Store DB path overriding the config")

	cmd.AddCommand(
		newSimulateCmd(a),
		newFitCmd(a),
		newPredictCmd(a),
		newSummaryCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.dbPath != "" {
		cfg.Store.Path = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if err := logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) openStore() (*store.SQLStore, error) {
	return store.Open(a.cfg.Store.Path)
}

// options copies the config sections so commands can override them
func (a *app) options() *survival.Options {
	prior := a.cfg.Prior
	inference := a.cfg.Inference
	pred := a.cfg.Predictive
	return &survival.Options{
		PriorOptions:      &prior,
		InferenceConfig:   &inference,
		PredictiveOptions: &pred,
	}
}
