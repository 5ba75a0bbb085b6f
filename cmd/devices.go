// cmd/devices.go
package cmd

import (
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/CharonDefalt/keysniff/internal/audio"
	"github.com/CharonDefalt/keysniff/internal/config"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available capture devices",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	logger := newLogger(settings.Debug)

	capture := audio.NewCapture(audio.DefaultCaptureConfig())
	if err := capture.Init(); err != nil {
		logger.Error("failed to init audio backend", slog.Any("error", xerrors.New(err)))
		return err
	}
	defer capture.Close()

	devices, err := capture.ListDevices()
	if err != nil {
		logger.Error("failed to enumerate devices", slog.Any("error", xerrors.New(err)))
		return err
	}

	for i, d := range devices {
		cmd.Printf("%3d: %s\n", i, d.Name())
	}
	return nil
}
