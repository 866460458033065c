package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/regindex/internal/config"
	"github.com/dgallion1/regindex/internal/mcp"
	"github.com/dgallion1/regindex/internal/search"
	"github.com/spf13/cobra"
)

func mcpCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve search and quote as MCP tools over stdio",
		Long: `Serve the regulation index as Model Context Protocol tools on stdin/stdout.

Tools: regulation_search, regulation_quote, regulation_stats.
Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath, _ := cmd.Flags().GetString("index")
			verbose, _ := cmd.Flags().GetBool("verbose")
			log := cliLogger(cmd.ErrOrStderr(), verbose)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			searcher := search.Open(indexPath)
			if le := searcher.LoadErr(); le != nil {
				log.Warn("starting without index", "error", le.Code, "path", le.Path)
			}
			if cfg.WatchIndex {
				if err := search.Watch(ctx, searcher, indexPath, cfg.WatchDebounce, log); err != nil {
					log.Warn("index watcher disabled", "error", err)
				}
			}

			srv := mcp.NewServer(searcher, cfg.SearchMaxLimit, version, log)
			log.Info("mcp server ready", "index", indexPath, "chunks", searcher.Len())
			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("index", cfg.IndexPath, "Index file (JSON)")
	cmd.Flags().BoolP("verbose", "v", false, "Log to stderr")
	return cmd
}
