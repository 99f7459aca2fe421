package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"helixcanvas/internal/worker"
	"helixcanvas/pkg/domain"
)

// withClient runs fn against a worker pool sized from configuration.
func (a *app) withClient(fn func(*worker.Client) (any, error)) error {
	pool := worker.NewPool(worker.WithSize(a.cfg.Workers))
	defer pool.Close()
	out, err := fn(worker.NewClient(pool))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseFile(ctx context.Context, c *worker.Client, path string) (domain.ParsedFileResult, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return domain.ParsedFileResult{}, err
	}
	return c.ParseFile(ctx, filepath.Base(path), string(text))
}

func firstSequence(ctx context.Context, c *worker.Client, path string) (string, error) {
	res, err := parseFile(ctx, c, path)
	if err != nil {
		return "", err
	}
	if len(res.Sequences) == 0 {
		return "", fmt.Errorf("%s: no sequences", path)
	}
	return res.Sequences[0].Residues, nil
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a sequence or alignment file and print the records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				return parseFile(cmd.Context(), c, args[0])
			})
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run sequence analytics on the first record of a file",
	}

	var window int
	gc := &cobra.Command{
		Use:   "gc FILE",
		Short: "Windowed GC content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				seq, err := firstSequence(cmd.Context(), c, args[0])
				if err != nil {
					return nil, err
				}
				return c.GC(cmd.Context(), seq, window)
			})
		},
	}
	gc.Flags().IntVarP(&window, "window", "w", 0, "window size (default 200)")

	var minLength int
	orfs := &cobra.Command{
		Use:   "orfs FILE",
		Short: "Open reading frames on the forward strand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				seq, err := firstSequence(cmd.Context(), c, args[0])
				if err != nil {
					return nil, err
				}
				return c.ORFs(cmd.Context(), seq, minLength)
			})
		},
	}
	orfs.Flags().IntVarP(&minLength, "min-length", "m", 0, "minimum ORF length in amino acids (default 30)")

	var frame int
	translate := &cobra.Command{
		Use:   "translate FILE",
		Short: "Translate with the standard codon table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				seq, err := firstSequence(cmd.Context(), c, args[0])
				if err != nil {
					return nil, err
				}
				return c.Translate(cmd.Context(), seq, frame)
			})
		},
	}
	translate.Flags().IntVar(&frame, "frame", 0, "reading frame offset")

	revcomp := &cobra.Command{
		Use:   "revcomp FILE",
		Short: "Reverse complement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				seq, err := firstSequence(cmd.Context(), c, args[0])
				if err != nil {
					return nil, err
				}
				return c.ReverseComplement(cmd.Context(), seq)
			})
		},
	}

	identity := &cobra.Command{
		Use:   "identity FILE_A FILE_B",
		Short: "Ungapped percent identity of two sequences",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				x, y, err := pair(cmd.Context(), c, args)
				if err != nil {
					return nil, err
				}
				return c.PairwiseIdentity(cmd.Context(), x, y)
			})
		},
	}

	var dotWindow int
	dotplot := &cobra.Command{
		Use:   "dotplot REFERENCE QUERY",
		Short: "Exact-match dot plot between two sequences",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *worker.Client) (any, error) {
				x, y, err := pair(cmd.Context(), c, args)
				if err != nil {
					return nil, err
				}
				return c.DotPlot(cmd.Context(), x, y, dotWindow)
			})
		},
	}
	dotplot.Flags().IntVarP(&dotWindow, "window", "w", 0, "window size (default 10)")

	cmd.AddCommand(gc, orfs, translate, revcomp, identity, dotplot)
	return cmd
}

func pair(ctx context.Context, c *worker.Client, paths []string) (string, string, error) {
	x, err := firstSequence(ctx, c, paths[0])
	if err != nil {
		return "", "", err
	}
	y, err := firstSequence(ctx, c, paths[1])
	if err != nil {
		return "", "", err
	}
	return x, y, nil
}
