package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ledgerbook/internal/domain"
	"ledgerbook/internal/services"
)

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Inspect and drive remote sync state",
	}
	cmd.AddCommand(newSyncStatusCommand(rootOpts))
	cmd.AddCommand(newSyncChangesCommand(rootOpts))
	cmd.AddCommand(newSyncAckCommand(rootOpts))
	cmd.AddCommand(newSyncCompleteCommand(rootOpts))
	return cmd
}

func newSyncStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending count, watermark and replica id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := services.NewSyncService(rt.Stores, rt.Log).Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(st, func(w io.Writer) {
				fmt.Fprintf(w, "Replica:   %s\n", st.ReplicaID)
				fmt.Fprintf(w, "Pending:   %d\n", st.PendingCount)
				if st.LastSync == 0 {
					fmt.Fprintln(w, "Last sync: never")
				} else {
					fmt.Fprintf(w, "Last sync: %s\n", st.LastSync.Time().Format(time.RFC3339))
				}
			})
		},
	}
}

func newSyncChangesCommand(rootOpts *RootOptions) *cobra.Command {
	var since int64
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Export records changed after a watermark as JSON",
		Long: `Export every record written after --since (unix milliseconds), tombstones
included. Without --since the last completed sync watermark is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := services.NewSyncService(rt.Stores, rt.Log)
			from := domain.Millis(since)
			if !cmd.Flags().Changed("since") {
				if from, err = svc.LastSync(cmd.Context()); err != nil {
					return err
				}
			}
			cs, err := svc.Changes(cmd.Context(), from)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cs)
		},
	}
	cmd.Flags().Int64Var(&since, "since", 0, "watermark in unix milliseconds")
	return cmd
}

func newSyncAckCommand(rootOpts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "ack",
		Short: "Mark acknowledged record versions as synced",
		Long: `Read a JSON array of {"kind","id","updatedAt"} acknowledgements from --file
(or stdin) and flag those exact versions Synced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open acks", err)
				}
				defer f.Close()
				in = f
			}
			var acks []services.Ack
			if err := json.NewDecoder(in).Decode(&acks); err != nil {
				return WrapExitError(ExitCommandError, "failed to parse acks", err)
			}

			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := services.NewSyncService(rt.Stores, rt.Log).Acknowledge(cmd.Context(), acks)
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "Applied %d, stale %d, missing %d\n", res.Applied, res.Stale, res.Missing)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "acknowledgements file, - for stdin")
	return cmd
}

func newSyncCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <unix-ms>",
		Short: "Record a completed sync up to the given watermark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || ts <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid watermark %q", args[0]))
			}
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			wm, err := services.NewSyncService(rt.Stores, rt.Log).RecordSyncCompletion(cmd.Context(), domain.Millis(ts))
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]any{"lastSync": wm}, func(w io.Writer) {
				fmt.Fprintf(w, "Last sync: %d\n", wm)
			})
		},
	}
}
