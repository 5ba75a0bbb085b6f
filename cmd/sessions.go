// cmd/sessions.go
package cmd

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/CharonDefalt/keysniff/internal/config"
	"github.com/CharonDefalt/keysniff/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [id]",
	Short: "List stored analysis sessions, or show one",
	Long: `Without arguments, lists stored analysis sessions newest first.
With a session ID, prints that session's cluster-ID sequence.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	logger := newLogger(settings.Debug)

	db, err := store.Open(settings.DBPath)
	if err != nil {
		logger.Error("failed to open session store", slog.Any("error", xerrors.New(err)))
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		session, strokes, err := db.LoadSession(args[0])
		if err != nil {
			logger.Error("failed to load session", slog.Any("error", xerrors.New(err)))
			return err
		}

		ids := make([]string, strokes.Len())
		for i, id := range strokes.ClusterIDs() {
			ids[i] = strconv.Itoa(int(id))
		}
		cmd.Printf("source: %s\n", session.Source)
		cmd.Printf("strokes: %d\n", session.StrokeCount)
		cmd.Printf("clusters: %d\n", session.ClusterCount)
		cmd.Printf("sequence: %s\n", strings.Join(ids, " "))
		return nil
	}

	sessions, err := db.ListSessions()
	if err != nil {
		logger.Error("failed to list sessions", slog.Any("error", xerrors.New(err)))
		return err
	}
	for _, s := range sessions {
		cmd.Printf("%s  %s  strokes=%d clusters=%d  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.StrokeCount, s.ClusterCount, s.Source)
	}
	return nil
}
