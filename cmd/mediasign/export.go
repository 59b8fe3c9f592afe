package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/export"
	"github.com/estatly/mediasign/service"
)

var (
	exportInput  string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build an HTML document with embedded media",
	Long: `Read a document description as JSON:

  {"title": "...", "sections": [{"heading": "...", "body": "...", "media": ["ref", ...]}]}

and write it as a self-contained HTML file. Each media reference is
embedded as a data URL, fetched through the signing service or directly
from its signed URL. Media that cannot be embedded is marked [unavailable];
the export itself still succeeds.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "-", "document JSON file, - for stdin")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "HTML output file, - for stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	doc, err := readDocument(cmd.InOrStdin(), exportInput)
	if err != nil {
		return err
	}

	app, err := newApp(bootstrap.WithSummaryWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	clients, err := service.RegisterClients(app)
	if err != nil {
		return err
	}

	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		res, err := clients.Resolver()
		if err != nil {
			return err
		}
		builder, err := clients.Builder(res)
		if err != nil {
			return err
		}
		rendered := builder.Build(ctx, doc)

		w := cmd.OutOrStdout()
		if exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := export.RenderHTML(w, rendered); err != nil {
			return err
		}
		if n := rendered.Unavailable(); n > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d media item(s) unavailable\n", n)
		}
		return nil
	})
}

func readDocument(stdin io.Reader, path string) (export.Document, error) {
	var doc export.Document
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return doc, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return doc, fmt.Errorf("reading document: %w", err)
	}
	return doc, nil
}
