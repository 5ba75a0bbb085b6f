// cmd/root.go
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/CharonDefalt/keysniff/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "keysniff",
	Short: "Keystroke recovery from keyboard acoustics",
	Long: `Recovers the sequence of individual key strokes from an acoustic
recording of a keyboard and groups them by physical key, producing the
cluster-ID sequence consumed by a substitution-cipher solver.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	rootCmd.PersistentFlags().Float64P("background", "b", 10.0, "peak-vs-background detection ratio")
	rootCmd.PersistentFlags().IntP("history", "H", 6144, "background history size in samples")
	rootCmd.PersistentFlags().Float64P("cluster-threshold", "c", 0.5, "minimum pair correlation for a merge")
	rootCmd.PersistentFlags().IntP("workers", "j", 0, "similarity worker count (0 = all CPUs)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	// Bind flags to viper
	viper.BindPFlag("device_index", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("threshold_background", rootCmd.PersistentFlags().Lookup("background"))
	viper.BindPFlag("history_size", rootCmd.PersistentFlags().Lookup("history"))
	viper.BindPFlag("threshold_clustering", rootCmd.PersistentFlags().Lookup("cluster-threshold"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the diagnostic sink handed to the pipeline stages.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
