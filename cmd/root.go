/*
	Copyright 2025 GazooRazoo authors
*/

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	analyzeCmd "github.com/NissanArmada/GazooRazoo/pkg/cmd/analyze"
	driversCmd "github.com/NissanArmada/GazooRazoo/pkg/cmd/drivers"
	predictCmd "github.com/NissanArmada/GazooRazoo/pkg/cmd/predict"
	replayCmd "github.com/NissanArmada/GazooRazoo/pkg/cmd/replay"
	serveCmd "github.com/NissanArmada/GazooRazoo/pkg/cmd/serve"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/version"
)

const envPrefix = "GAZOO"

var (
	cfgFile   string
	telemetry *config.Telemetry
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "gazoo",
	Short:   "Telemetry ingestion and driver analysis for GR Cup sessions",
	Long:    ``,
	Version: version.FullVersion,

	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := config.SetupLogger(os.Stderr)
		if err != nil {
			return err
		}
		if config.EnableTelemetry {
			logger.Info("Enabling telemetry")
			if telemetry, err = config.SetupTelemetry(cmd.Context()); err != nil {
				logger.Warn("Could not setup telemetry", log.ErrorField(err))
			}
		}
		cmd.SetContext(log.AddToContext(cmd.Context(), logger))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if telemetry != nil {
			telemetry.Shutdown()
		}
		_ = log.Default().Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.gazoo.yml)")

	rootCmd.PersistentFlags().StringVar(&config.TelemetryFile, "telemetry", "",
		"telemetry export (vehicle_id, telemetry_name, telemetry_value, timestamp)")
	rootCmd.PersistentFlags().StringVar(&config.LapsFile, "laps", "",
		"lap time export")
	rootCmd.PersistentFlags().StringVar(&config.WeatherFile, "weather", "",
		"weather export")
	rootCmd.PersistentFlags().StringVar(&config.SectionsFile, "sections", "",
		"track sections export")
	rootCmd.PersistentFlags().IntVar(&config.ChunkSize, "chunk-size",
		chunk.DefaultChunkSize,
		"bytes read from the telemetry file per chunk")
	rootCmd.PersistentFlags().StringVar(&config.AnalysisURL, "analysis-url",
		analysis.DefaultURL,
		"base URL of the analysis service")
	rootCmd.PersistentFlags().DurationVar(&config.AnalysisTimeout, "analysis-timeout",
		analysis.DefaultTimeout,
		"timeout for analysis service requests")
	rootCmd.PersistentFlags().StringVar(&config.GearConfig, "gear-config", "",
		"YAML file with gear speed ranges and shift points (default: built-in table)")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", "info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat, "log-format", "text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter, "log-filter", "",
		"zapfilter rules, e.g. '*:* -debug:ingest.*'")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry, "enable-telemetry", false,
		"enables telemetry (metrics are written to stderr)")

	// add commands here
	rootCmd.AddCommand(driversCmd.NewDriversCmd())
	rootCmd.AddCommand(analyzeCmd.NewAnalyzeCmd())
	rootCmd.AddCommand(replayCmd.NewReplayCmd())
	rootCmd.AddCommand(serveCmd.NewServeCmd())
	rootCmd.AddCommand(predictCmd.NewPredictCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// values from .env never override variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Could not load .env:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".gazoo" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gazoo")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --chunk-size to GAZOO_CHUNK_SIZE
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
