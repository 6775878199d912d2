package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/interrupt"
	"github.com/tuaneric255-blip/Imaxai/internal/server"
)

// ServeCmd creates the serve command exposing the tools over HTTP.
func ServeCmd(env *Env) *cobra.Command {
	var (
		addr    string
		origins []string
		flags   genFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the image tools over HTTP for the browser app",
		Long: `Serve the image tools over HTTP.

The browser app posts images as data URIs to /api/tools/<name> and may store
the user's API key through /api/credential. The key is kept in the config
file and read again on every request.

Only pages served from localhost may call the server unless --origin names
other origins.`,
		Example: `  imaxai serve
  imaxai serve --addr 0.0.0.0:8787 --origin http://localhost:5173`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(env, &flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			srv := server.New(server.Options{
				Addr:           addr,
				AllowedOrigins: origins,
				Generator:      sess.gen,
				Keys:           env.Store,
				StoreKey:       sess.provider.StoreKey(),
				Logger:         sess.logger,
				Debug:          flags.verbose,
			})
			handler, ctx := interrupt.NewHandler(cmd.Context(), interrupt.Cancel)
			defer handler.Stop()

			fmt.Fprintf(env.Stderr, "Serving on http://%s (provider: %s). Press Ctrl+C to stop.\n", srv.Addr(), sess.provider)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "Listen address")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "Allowed browser origin (repeatable, default: localhost pages only; \"*\" disables /api/credential)")
	flags.register(cmd.Flags())

	return cmd
}
