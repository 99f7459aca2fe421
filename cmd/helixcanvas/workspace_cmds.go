package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"helixcanvas/internal/formats"
)

func newImportCmd(a *app) *cobra.Command {
	var sequenceID string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Parse files and store their sequences and alignments in the workspace",
		Long:  "Parse files and store their sequences and alignments in the workspace.\nGFF3 files add features to the sequence named by --sequence.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()
			for _, path := range args {
				text, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				name := filepath.Base(path)
				if formats.DetectKind(name) == formats.KindGFF {
					if sequenceID == "" {
						return fmt.Errorf("%s: GFF features need --sequence", path)
					}
					features, err := ws.svc.ImportFeaturesGFF(cmd.Context(), sequenceID, string(text))
					if err != nil {
						return err
					}
					for _, f := range features {
						fmt.Fprintf(a.stdout, "feature\t%s\t%s\t%d\n", f.ID, f.Name, f.End-f.Start)
					}
					continue
				}
				res, err := ws.svc.ImportFile(cmd.Context(), name, string(text))
				if err != nil {
					return err
				}
				for _, seq := range res.Sequences {
					fmt.Fprintf(a.stdout, "sequence\t%s\t%s\t%d\n", seq.ID, seq.Name, seq.Length)
				}
				for _, aln := range res.Alignments {
					fmt.Fprintf(a.stdout, "alignment\t%s\t%s\t%d\n", aln.ID, aln.Name, len(aln.Sequences))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sequenceID, "sequence", "s", "", "sequence id that GFF3 features are added to")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sequences and alignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tID\tNAME\tTYPE\tSIZE")
			for _, seq := range ws.svc.ListSequences() {
				fmt.Fprintf(tw, "sequence\t%s\t%s\t%s\t%d\n", seq.ID, seq.Name, seq.Type, seq.Length)
			}
			for _, aln := range ws.svc.ListAlignments() {
				fmt.Fprintf(tw, "alignment\t%s\t%s\t%s\t%d\n", aln.ID, aln.Name, aln.Type, aln.Width())
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "export [ID...]",
		Short: "Export a stored record (fasta, genbank, clustal) or sequences as multi-FASTA",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) != 1 {
				return fmt.Errorf("export takes exactly one id, or --all with optional ids")
			}
			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()
			var text string
			if all {
				text, err = ws.svc.ExportSequences(cmd.Context(), args)
			} else {
				text, err = ws.svc.Export(cmd.Context(), args[0], format)
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.stdout, text)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "fasta", "output format: fasta, genbank or clustal")
	cmd.Flags().BoolVar(&all, "all", false, "write sequences as multi-FASTA")
	return cmd
}
