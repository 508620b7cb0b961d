package cmd

import (
	"log/slog"
	"time"

	"consensus-bridge/internal/config"
	"consensus-bridge/internal/gateway"
	"consensus-bridge/internal/redisclient"
	"consensus-bridge/internal/storage"
	"consensus-bridge/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveNoWatcher bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the action gateway and the pending merge job watcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()

		if cfg.App.Production() {
			gin.SetMode(gin.ReleaseMode)
		}

		// Redis client
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)
		pendingTTL := config.Duration(cfg.Watcher.PendingTTL, 7*24*time.Hour)

		client := newForumClient(cfg)
		wf := newWorkflow(cfg)
		h := gateway.NewHandler(wf).WithLedger(store, pendingTTL)
		router := gateway.NewRouter(h, gateway.Options{AllowOrigins: cfg.Gateway.AllowOrigins})

		ws := []worker.Worker{&gateway.Server{Addr: cfg.Gateway.Addr, Handler: router}}

		if !serveNoWatcher && len(cfg.Watcher.Topics) > 0 {
			creds, err := credentials(ctx, cfg)
			if err != nil {
				return err
			}
			w := &worker.PendingJobWatcher{
				Jobs:     client,
				Ledger:   store,
				Creds:    creds,
				Topics:   cfg.Watcher.Topics,
				Interval: config.Duration(cfg.Watcher.Interval, 5*time.Minute),
				TTL:      pendingTTL,
			}
			slog.Info("starting pending job watcher for topics", "topics", w.Topics)
			ws = append(ws, w)
		}

		mgr := worker.NewManager(ws...)
		return mgr.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoWatcher, "no-watcher", false, "do not start the pending job watcher")
	rootCmd.AddCommand(serveCmd)
}
