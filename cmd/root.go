package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/averen/sigil/internal/buildinfo"
	"github.com/averen/sigil/internal/logging"
)

// global flags
var (
	cfgFile    string
	serverAddr string
)

const ServerAddrKey = "addr"

var rootCmd = &cobra.Command{
	Use:   "sigil",
	Short: fmt.Sprintf("Sigil auth service (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `Sigil is a small authentication and authorization service.
It verifies credentials against a configured user store, issues signed
bearer tokens, and evaluates named policies over the claims they carry.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init()
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to the Sigil configuration file (default is ./sigil.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(logging.LevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(logging.FormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(logging.NoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "Address of a remote Sigil server")
	_ = viper.BindPFlag(ServerAddrKey, rootCmd.PersistentFlags().Lookup("server"))

	viper.SetEnvPrefix("SIGIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// configPath resolves the config file path from the flag with a local default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "sigil.yaml"
}
