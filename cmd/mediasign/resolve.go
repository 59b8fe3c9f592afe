package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [ref...]",
	Short: "Resolve references to signed URLs",
	Long: `Resolve media references through the signing service in batches and
print a JSON object mapping each reference to its URL. References that
could not be signed map to themselves.

References are read from the arguments, or one per line from stdin when
none are given.`,
	RunE: runResolve,
}

type resolvedRef struct {
	Ref    string `json:"ref"`
	URL    string `json:"url"`
	Signed bool   `json:"signed"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	refs := args
	if len(refs) == 0 {
		var err error
		if refs, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
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
		result := res.Resolve(ctx, refs)

		out := make([]resolvedRef, len(refs))
		for i, ref := range refs {
			out[i] = resolvedRef{Ref: ref, URL: result[ref], Signed: result.Signed(ref)}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	})
}

func readLines(r io.Reader) ([]string, error) {
	if f, ok := r.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			return nil, nil
		}
	}
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
