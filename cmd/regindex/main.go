package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/regindex/internal/chunker"
	"github.com/dgallion1/regindex/internal/config"
	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/parser"
	"github.com/dgallion1/regindex/internal/pipeline"
	"github.com/dgallion1/regindex/internal/search"
	"github.com/dgallion1/regindex/internal/store"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := rootCmd(&cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "regindex",
		Short: "Article-level chunk index for EU regulations",
		Long: `regindex splits a regulation into numbered articles and overlapping,
citable chunks, writes the result as a JSON index and answers keyword
search and quote lookups against it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(buildCmd(cfg))
	root.AddCommand(searchCmd(cfg))
	root.AddCommand(quoteCmd(cfg))
	root.AddCommand(serveCmd(cfg))
	root.AddCommand(mcpCmd(cfg))
	return root
}

func buildCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build the chunk index from a regulation document",
		Long: `Build the chunk index from a regulation document.

Supported formats: PDF, TXT (form feed separates pages), MD, HTML, DOCX

Example:
  regindex build files/CELEX_32021R0782_DA_TXT.pdf
  regindex build reg.pdf --out index.json --sqlite index.db --max-chars 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			sqlitePath, _ := cmd.Flags().GetString("sqlite")
			celex, _ := cmd.Flags().GetString("celex")
			lang, _ := cmd.Flags().GetString("lang")
			maxChars, _ := cmd.Flags().GetInt("max-chars")
			overlap, _ := cmd.Flags().GetInt("overlap")
			workers, _ := cmd.Flags().GetInt("workers")
			verbose, _ := cmd.Flags().GetBool("verbose")

			log := cliLogger(cmd.ErrOrStderr(), verbose)
			src := doctree.Source{Celex: celex, Lang: strings.ToUpper(lang), PDFPath: args[0]}
			chunkCfg := chunker.Config{MaxChars: maxChars, Overlap: overlap}

			idx, err := buildIndex(cmd.Context(), args[0], src, chunkCfg, workers, cfg.PDFFallbackPdftotext, log)
			if err != nil {
				return err
			}

			if err := store.SaveJSON(out, idx); err != nil {
				return err
			}
			if sqlitePath != "" {
				if err := exportSQLite(cmd.Context(), sqlitePath, idx); err != nil {
					return err
				}
				log.Info("exported sqlite", "path", sqlitePath)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: wrote %s (chunks=%d)\n", out, idx.Stats.Chunks)
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", cfg.IndexPath, "Output index file (JSON)")
	cmd.Flags().String("sqlite", cfg.SQLitePath, "Also export the index to this SQLite database")
	cmd.Flags().String("celex", cfg.DocCelex, "CELEX number recorded as the index source")
	cmd.Flags().String("lang", cfg.DocLang, "Language code recorded as the index source")
	cmd.Flags().Int("max-chars", cfg.MaxChars, "Maximum characters per chunk")
	cmd.Flags().Int("overlap", cfg.ChunkOverlap, "Characters repeated between consecutive chunks")
	cmd.Flags().Int("workers", cfg.SplitWorkers, "Articles split in parallel")
	cmd.Flags().BoolP("verbose", "v", false, "Log progress to stderr")
	return cmd
}

// buildIndex parses path and runs it through the build pipeline.
func buildIndex(ctx context.Context, path string, src doctree.Source, chunkCfg chunker.Config, workers int, pdfFallback bool, log *slog.Logger) (doctree.Index, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	builder, err := pipeline.NewBuilder(chunkCfg, workers, log)
	if err != nil {
		return doctree.Index{}, err
	}

	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: pdfFallback})
	if err != nil {
		return doctree.Index{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return doctree.Index{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	pages, err := p.Parse(f, path)
	if err != nil {
		return doctree.Index{}, fmt.Errorf("parse %s: %w", path, err)
	}
	log.Info("parsed document", "path", path, "pages", len(pages))

	return builder.Build(ctx, src, pages)
}

func exportSQLite(ctx context.Context, path string, idx doctree.Index) error {
	if ctx == nil {
		ctx = context.Background()
	}
	exp, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer exp.Close()
	return exp.Export(ctx, idx)
}

func searchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Keyword search over the chunk index",
		Long: `Keyword search over the chunk index.

Example:
  regindex search "artikel 19 erstatning ved forsinkelse"
  regindex search forsinkelse --limit 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath, _ := cmd.Flags().GetString("index")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openSearcher(indexPath)
			if err != nil {
				return err
			}
			q := strings.Join(args, " ")
			hits := s.Search(q, max(1, min(limit, cfg.SearchMaxLimit)))
			if hits == nil {
				hits = []search.Hit{}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"query": q, "hits": hits})
		},
	}
	cmd.Flags().String("index", cfg.IndexPath, "Index file (JSON)")
	cmd.Flags().IntP("limit", "n", 8, "Maximum number of hits")
	return cmd
}

func quoteCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <chunk-id>",
		Short: "Print a chunk by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath, _ := cmd.Flags().GetString("index")

			s, err := openSearcher(indexPath)
			if err != nil {
				return err
			}
			c, err := s.Quote(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "quote": c})
		},
	}
	cmd.Flags().String("index", cfg.IndexPath, "Index file (JSON)")
	return cmd
}

func openSearcher(path string) (*search.Searcher, error) {
	s := search.Open(path)
	if le := s.LoadErr(); le != nil {
		return nil, le
	}
	return s, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cliLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
