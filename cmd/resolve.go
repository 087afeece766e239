package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/server"
	"github.com/tranvictor/ensprefs/session"
)

// writeResolved prints the same body GET /api/resolve serves. A snapshot
// with unreadable keys is an error, as it is over HTTP.
func writeResolved(ctx context.Context, w io.Writer, loader server.SnapshotLoader, rawAddr string) error {
	addr, err := jarviscommon.ParseAddress(strings.TrimSpace(rawAddr))
	if err != nil {
		return err
	}
	snap, err := loader.LoadSnapshot(ctx, addr)
	if err != nil {
		return err
	}
	if !snap.Complete() {
		var failed []prefs.Key
		for _, k := range prefs.Keys() {
			if snap.Failed(k) {
				failed = append(failed, k)
			}
		}
		logger.Warn("incomplete snapshot", "address", addr.Hex(), "failed", len(failed))
		return &session.IncompleteSnapshotError{Keys: failed}
	}
	out, err := json.MarshalIndent(server.NewResolveResponse(snap), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <address>",
	Short: "Print the primary name and preferences of an address as json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices(cfg)
		if err != nil {
			return err
		}
		return writeResolved(cmd.Context(), cmd.OutOrStdout(), svc.loader(cfg), args[0])
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
