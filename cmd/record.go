// cmd/record.go
package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/CharonDefalt/keysniff/internal/audio"
	"github.com/CharonDefalt/keysniff/internal/config"
)

var recordDuration time.Duration

var recordCmd = &cobra.Command{
	Use:   "record <output>",
	Short: "Record keyboard audio to a raw float32 capture file",
	Long: `Records mono audio from the configured capture device into the
headerless little-endian float32 format the analyze command reads.
Recording stops after --duration, or on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "t", 0, "stop after this long (0 = until interrupted)")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	logger := newLogger(settings.Debug)

	capture := audio.NewCapture(audio.CaptureConfig{
		DeviceIndex: settings.DeviceIndex,
		SampleRate:  uint32(settings.SampleRate),
		BufferSize:  uint32(settings.BufferSize),
	})
	if err := capture.Init(); err != nil {
		logger.Error("failed to init audio backend", slog.Any("error", xerrors.New(err)))
		return err
	}
	defer capture.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if recordDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}

	if err := capture.Start(ctx); err != nil {
		logger.Error("failed to start capture", slog.Any("error", xerrors.New(err)))
		return err
	}
	logger.Info("recording",
		slog.String("output", args[0]),
		slog.Int("sampleRate", settings.SampleRate))

	var frames []float32
capturing:
	for {
		select {
		case chunk := <-capture.Frames:
			frames = append(frames, chunk...)
		case <-ctx.Done():
			break capturing
		}
	}
	_ = capture.Stop()

	// Drain whatever the audio thread already queued
draining:
	for {
		select {
		case chunk := <-capture.Frames:
			frames = append(frames, chunk...)
		default:
			break draining
		}
	}

	if err := audio.SaveRaw(args[0], frames); err != nil {
		logger.Error("failed to save capture", slog.Any("error", xerrors.New(err)))
		return err
	}
	logger.Info("capture saved",
		slog.String("output", args[0]),
		slog.Int("frames", len(frames)),
		slog.Float64("seconds", float64(len(frames))/float64(settings.SampleRate)))

	return nil
}
