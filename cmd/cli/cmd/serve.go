package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelospk/gamecrawl/internal/api"
	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups over HTTP",
	Long: `Starts an HTTP server exposing the catalog and lookups:

  GET  /entries
  POST /resolve/{field}/{id}?dryRun=
  POST /batch/{field}?limit=&dryRun=
  POST /cooldowns/{field}/clear`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8089)")
	_ = viper.BindPFlag(CfgKeyServeAddr, serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	var resolvers []*lookup.Resolver
	for _, field := range catalog.Fields() {
		r, err := newResolver(field, store)
		if errors.Is(err, coreerrors.ErrUnknownSite) {
			logger.Warnf("No site for %s, skipping", field)
			continue
		}
		if err != nil {
			return err
		}
		resolvers = append(resolvers, r)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return ServeFunc(ctx, api.New(store, resolvers, logger), viper.GetString(CfgKeyServeAddr))
}

// ServeFunc runs the server until ctx is done. Tests replace it.
var ServeFunc = func(ctx context.Context, srv *api.Server, addr string) error {
	return srv.ListenAndServe(ctx, addr)
}
