package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the location cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print the number of cached locations",
			Args:  cobra.NoArgs,
			RunE:  runCacheStats,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached location",
			Args:  cobra.NoArgs,
			RunE:  runCacheClear,
		},
	)
	return cmd
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Cached locations: %d\n", store.Stats(cmd.Context()))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Clear(cmd.Context())
	if err != nil {
		return fmt.Errorf("clearing location cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: removed %d locations\n", removed)
	return nil
}
