package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	cachepkg "github.com/abyan-ai/askme/pkg/cache/sqlite"
	"github.com/abyan-ai/askme/pkg/config"
)

func newCacheCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the scrape response cache",
	}

	// open ignores cache.enabled so a disabled cache can still be inspected.
	open := func() (*cachepkg.Cache, *config.Config, error) {
		cfg, err := load()
		if err != nil {
			return nil, nil, err
		}
		c, err := cachepkg.New(cfg.Cache.DBPath, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		return c, cfg, nil
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s (enabled: %t)\n", cfg.Cache.DBPath, cfg.Cache.Enabled)
			fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)

			sources := make([]string, 0, len(stats.BySource))
			for s := range stats.BySource {
				sources = append(sources, s)
			}
			sort.Strings(sources)
			for _, s := range sources {
				fmt.Fprintf(out, "  %-12s %d\n", s, stats.BySource[s])
			}
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			n, err := c.Clear(expiredOnly)
			if err != nil {
				return err
			}
			if expiredOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "%d expired cache entries cleared.\n", n)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d cache entries cleared.\n", n)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
