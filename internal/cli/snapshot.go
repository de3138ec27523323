package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-catalog-client/internal/storage"
)

// snapshotView is the printable form of a stored snapshot.
type snapshotView struct {
	EndpointID string    `json:"endpoint_id" yaml:"endpoint_id"`
	Kind       string    `json:"kind" yaml:"kind"`
	Count      int       `json:"count" yaml:"count"`
	Revision   uint64    `json:"revision" yaml:"revision"`
	FetchedAt  time.Time `json:"fetched_at" yaml:"fetched_at"`
	Items      []any     `json:"items" yaml:"items"`
}

func newSnapshotCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect collections archived by catalogd",
	}
	cmd.AddCommand(newSnapshotShowCommand(opts))
	return cmd
}

func newSnapshotShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ENDPOINT_ID",
		Short: "Show the latest snapshot of an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
				SnapshotTTL:     cfg.StorageTTL,
				CleanupInterval: cfg.StorageCleanupInterval,
			})
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			snap, found, err := store.LatestSnapshot(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			if !found {
				return fmt.Errorf("no snapshot stored for endpoint %q (storage_type=%s)", args[0], cfg.StorageType)
			}

			view := snapshotView{
				EndpointID: snap.EndpointID,
				Kind:       snap.Kind,
				Count:      snap.Count,
				Revision:   snap.Revision,
				FetchedAt:  snap.FetchedAt,
			}
			if len(snap.Items) > 0 {
				if err := json.Unmarshal(snap.Items, &view.Items); err != nil {
					return fmt.Errorf("decode snapshot items: %w", err)
				}
			}

			return render(opts.out, opts.output, view, func(table *tablewriter.Table) {
				table.Header("Endpoint", "Kind", "Count", "Revision", "Fetched At")
				_ = table.Append(view.EndpointID, view.Kind, strconv.Itoa(view.Count),
					strconv.FormatUint(view.Revision, 10), view.FetchedAt.Format(time.RFC3339))
			})
		},
	}
}
