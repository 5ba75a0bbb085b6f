// cmd/analyze.go
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/CharonDefalt/keysniff/internal/audio"
	"github.com/CharonDefalt/keysniff/internal/config"
	"github.com/CharonDefalt/keysniff/internal/keystroke"
	"github.com/CharonDefalt/keysniff/internal/pipeline"
	"github.com/CharonDefalt/keysniff/internal/store"
)

var (
	analyzeKeysFile string
	analyzeSave     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <recording>",
	Short: "Detect, align and cluster keystrokes in a recording",
	Long: `Runs the full recovery pipeline over a recording (WAV or raw
float32 capture): peak detection, pairwise similarity, position
refinement and clustering. Prints the chronological cluster-ID
sequence.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeKeysFile, "keys-file", "k", "", "stroke checkpoint file (loaded when present, written after detection)")
	analyzeCmd.Flags().BoolVarP(&analyzeSave, "save", "s", false, "persist the session to the database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	logger := newLogger(settings.Debug)

	path := args[0]
	waveform, sampleRate, err := audio.LoadWaveform(path, settings.SampleRate)
	if err != nil {
		logger.Error("failed to load recording", slog.Any("error", xerrors.New(err)))
		return err
	}
	logger.Info("recording loaded",
		slog.String("path", path),
		slog.Int("samples", len(waveform)),
		slog.Int("sampleRate", sampleRate))

	opts := pipeline.FromSettings(settings, logger)
	view := waveform.ViewAt(0)

	var result *pipeline.Result
	if analyzeKeysFile != "" {
		if _, statErr := os.Stat(analyzeKeysFile); statErr == nil {
			strokes, loadErr := keystroke.Load(analyzeKeysFile, view)
			if loadErr != nil {
				logger.Error("failed to load checkpoint", slog.Any("error", xerrors.New(loadErr)))
				return loadErr
			}
			logger.Info("checkpoint loaded",
				slog.String("path", analyzeKeysFile),
				slog.Int("strokes", strokes.Len()))
			result, err = pipeline.Process(cmd.Context(), strokes, opts)
		} else {
			result, err = pipeline.Analyze(cmd.Context(), view, opts)
			if err == nil {
				if saveErr := keystroke.Save(analyzeKeysFile, result.Strokes); saveErr != nil {
					logger.Error("failed to write checkpoint", slog.Any("error", xerrors.New(saveErr)))
					return saveErr
				}
			}
		}
	} else {
		result, err = pipeline.Analyze(cmd.Context(), view, opts)
	}
	if err != nil {
		logger.Error("analysis failed", slog.Any("error", xerrors.New(err)))
		return err
	}

	printResult(cmd, result.Strokes)

	if analyzeSave {
		db, openErr := store.Open(settings.DBPath)
		if openErr != nil {
			logger.Error("failed to open session store", slog.Any("error", xerrors.New(openErr)))
			return openErr
		}
		defer db.Close()

		id, saveErr := db.SaveSession(path, sampleRate, result.Strokes)
		if saveErr != nil {
			logger.Error("failed to save session", slog.Any("error", xerrors.New(saveErr)))
			return saveErr
		}
		cmd.Printf("session saved: %s\n", id)
	}

	return nil
}

// printResult prints the cluster-ID sequence and a per-cluster summary.
func printResult(cmd *cobra.Command, c *keystroke.Collection) {
	ids := make([]string, c.Len())
	members := map[int32]int{}
	for i, id := range c.ClusterIDs() {
		ids[i] = fmt.Sprintf("%d", id)
		members[id]++
	}

	cmd.Printf("strokes: %d\n", c.Len())
	cmd.Printf("clusters: %d\n", c.ClusterCount)
	cmd.Printf("sequence: %s\n", strings.Join(ids, " "))

	order := make([]int32, 0, len(members))
	for id := range members {
		order = append(order, id)
	}
	slices.Sort(order)
	for _, id := range order {
		cmd.Printf("  cluster %d: %d strokes\n", id, members[id])
	}
}
