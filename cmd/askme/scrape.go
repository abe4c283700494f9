package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abyan-ai/askme/pkg/scraper"
)

func newScrapeCmd(load configLoader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch public data from Wikipedia, GitHub, Reddit or Hacker News",
	}

	// run builds a scraper from config, calls fetch and prints the result as JSON.
	run := func(cmd *cobra.Command, fetch func(context.Context, *scraper.Client) (any, error)) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		if cache != nil {
			defer func() { _ = cache.Close() }()
		}

		data, err := fetch(cmd.Context(), buildScraper(cfg, cache))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	wikiCmd := &cobra.Command{
		Use:   "wikipedia <title>",
		Short: "Show the summary of a Wikipedia article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, c *scraper.Client) (any, error) {
				return c.Wikipedia(ctx, args[0])
			})
		},
	}

	githubCmd := &cobra.Command{
		Use:   "github <user>",
		Short: "Show a GitHub profile and recently updated repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, c *scraper.Client) (any, error) {
				return c.GitHub(ctx, args[0], limit)
			})
		},
	}

	redditCmd := &cobra.Command{
		Use:   "reddit <subreddit>",
		Short: "Show the hot posts of a subreddit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, c *scraper.Client) (any, error) {
				return c.Reddit(ctx, args[0], limit)
			})
		},
	}

	hnCmd := &cobra.Command{
		Use:   "hackernews",
		Short: "Show the current Hacker News top stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, c *scraper.Client) (any, error) {
				return c.HackerNews(ctx, limit)
			})
		},
	}

	cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 0, fmt.Sprintf("number of items (max %d; 0 uses the source default)", scraper.MaxLimit))
	cmd.AddCommand(wikiCmd, githubCmd, redditCmd, hnCmd)
	return cmd
}
