package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/api"
	"github.com/abhisek/adaptiq/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the practice engine over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		srv := api.New(api.Deps{
			Content:        e.store.ContentRepo(),
			Registry:       session.NewRegistry(e.sessionDeps()),
			Analytics:      e.analytics(),
			Misconceptions: e.misconceptionService(ctx),
			Log:            e.log,
		}, api.Config{
			Addr:         e.cfg.HTTP.Addr,
			ReadTimeout:  e.cfg.HTTP.ReadTimeout,
			WriteTimeout: e.cfg.HTTP.WriteTimeout,
			CORSOrigins:  e.cfg.HTTP.CORSOrigins,
		})
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
}
