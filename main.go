package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"duet/pkg/config"
	"duet/pkg/ingest"
	"duet/pkg/logger"
)

var (
	jwtSecret []byte
	appCfg    *config.Config
	pipe      *ingest.Pipeline
	zlog      *zap.Logger
)

func main() {
	var err error
	zlog, err = logger.New()
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()
	log := zlog.Sugar()

	appCfg, err = config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	jwtSecret = []byte(appCfg.Auth.JWTSecret)

	// Support a lightweight migrate command: `./duet migrate`
	// Runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(appCfg)
		fmt.Println("migration and seeding completed")
		return
	}

	initDB(appCfg)

	pipe = ingest.New(db, ingest.Config{
		MediaRoot:    appCfg.Media.Root,
		LargeMax:     appCfg.Media.LargeMax,
		SmallMax:     appCfg.Media.SmallMax,
		JPEGQuality:  appCfg.Media.JPEGQuality,
		ThumbQuality: appCfg.Media.ThumbQuality,
	}, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := ingest.NewSweeper(db, appCfg.Media.Root, appCfg.Sweep.Grace, appCfg.Sweep.Interval, zlog)
	go sweeper.Run(ctx)

	r := gin.Default()
	setupRoutes(r)

	srv := &http.Server{Addr: appCfg.Server.Addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed: ", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown: ", err)
	}
	log.Info("server exited")
}
