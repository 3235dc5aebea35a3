// Package logging configures the global zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Viper keys read by Init. Bound to flags in cmd.
const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

// InitDefault sets up a pre-flag console logger so early startup messages
// are readable before configuration is parsed.
func InitDefault() {
	log.Logger = zerolog.New(consoleWriter(false)).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init configures the global logger from viper settings.
func Init() {
	level, err := zerolog.ParseLevel(viper.GetString(LevelKey))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch viper.GetString(FormatKey) {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		noColor := viper.GetBool(NoColorKey)
		log.Logger = zerolog.New(consoleWriter(noColor)).With().Timestamp().Logger()
	}
}

func consoleWriter(noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}
}
