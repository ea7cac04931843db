package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/persist"
)

func snapshotCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored model snapshots",
		Long: `Read, write, list and delete the JSON snapshots that serve
persists models to. Snapshots are keyed by model name.

Examples:
  modelctl snapshot list --persist=s3 --s3-bucket=my-models
  modelctl snapshot get counter
  echo '{"n":10,"step":1}' | modelctl snapshot put counter
  modelctl snapshot delete counter`,
	}

	cmd.AddCommand(
		snapshotListCmd(load),
		snapshotGetCmd(load),
		snapshotPutCmd(load),
		snapshotDeleteCmd(load),
	)
	return cmd
}

func openStorage(cmd *cobra.Command, load configLoader) (persist.Storage, error) {
	cfg, err := load(cmd)
	if err != nil {
		return nil, err
	}
	storage, err := newStorage(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if storage == nil {
		return nil, vmerrors.New("M040").
			WithDetailf("persist backend is %q", cfg.Persist.Backend).
			WithSuggestion("Pass --persist=s3 --s3-bucket=<bucket>")
	}
	return storage, nil
}

func snapshotListCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(cmd, load)
			if err != nil {
				return err
			}
			keys, err := storage.Keys(cmd.Context())
			if err != nil {
				return storageFailure(err)
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func snapshotGetCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "get <model>",
		Short: "Print a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(cmd, load)
			if err != nil {
				return err
			}
			data, err := storage.Load(cmd.Context(), args[0])
			if errors.Is(err, persist.ErrNotFound) {
				return notFound(args[0])
			}
			if err != nil {
				return storageFailure(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func snapshotPutCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "put <model> [file]",
		Short: "Store a snapshot from a file or stdin",
		Long: `Store a snapshot. The JSON is read from file, or from stdin when
file is omitted or "-". A running serve picks it up on its next start.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 2 && args[1] != "-" {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			storage, err := openStorage(cmd, load)
			if err != nil {
				return err
			}
			if err := storage.Save(cmd.Context(), args[0], data); err != nil {
				return storageFailure(err)
			}
			success(cmd.OutOrStdout(), "Stored %s (%d bytes)", args[0], len(data))
			return nil
		},
	}
}

func snapshotDeleteCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <model>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(cmd, load)
			if err != nil {
				return err
			}
			_, err = storage.Load(cmd.Context(), args[0])
			if errors.Is(err, persist.ErrNotFound) {
				return notFound(args[0])
			}
			if err != nil {
				return storageFailure(err)
			}
			if err := storage.Delete(cmd.Context(), args[0]); err != nil {
				return storageFailure(err)
			}
			success(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}

// storageFailure codes a raw backend error as M022. Coded errors pass through.
func storageFailure(err error) error {
	return vmerrors.FromError(err, "M022")
}

func notFound(key string) error {
	return vmerrors.New("M041").
		WithDetailf("model %q", key).
		WithSuggestion("Run 'modelctl snapshot list' to see stored snapshots")
}
