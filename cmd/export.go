// cmd/export.go
package cmd

import (
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/CharonDefalt/keysniff/internal/config"
	"github.com/CharonDefalt/keysniff/internal/keystroke"
	"github.com/CharonDefalt/keysniff/internal/wave"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <keys-file>",
	Short: "Dump a stroke checkpoint as plot-friendly text",
	Long: `Reads a stroke checkpoint written by analyze --keys-file and
prints one "position 1" line per stroke, suitable for plotting tools.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	logger := newLogger(settings.Debug)

	strokes, err := keystroke.Load(args[0], wave.View{})
	if err != nil {
		logger.Error("failed to load checkpoint", slog.Any("error", xerrors.New(err)))
		return err
	}

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			logger.Error("failed to create output", slog.Any("error", xerrors.New(err)))
			return err
		}
		defer f.Close()
		out = f
	}

	return keystroke.Dump(out, strokes)
}
