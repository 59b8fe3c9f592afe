package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/gallery"
	"github.com/estatly/mediasign/service"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery ref...",
	Short: "Preview how a gallery of references would display",
	Long: `Resolve the references as a listing gallery would, probe that every
resulting URL loads, and print each slot transition followed by the final
state of every slot.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGallery,
}

func runGallery(cmd *cobra.Command, args []string) error {
	app, err := newApp(bootstrap.WithSummaryWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	clients, err := service.RegisterClients(app)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		res, err := clients.Resolver()
		if err != nil {
			return err
		}
		g, err := clients.Gallery(args, res, gallery.WithObserver(func(u gallery.SlotUpdate) {
			fmt.Fprintf(out, "slot %d -> %s\n", u.Index, u.State)
		}))
		if err != nil {
			return err
		}

		g.Start(ctx)
		defer g.Cancel()
		for _, s := range g.Wait(ctx) {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", s.Index, s.State, s.Ref, s.DisplayURL)
		}
		return ctx.Err()
	})
}
