package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vmfleet/vmfleet/cmd/fleetd/handlers"
	kcs "github.com/vmfleet/vmfleet/pkg/configs/server"
	kdb "github.com/vmfleet/vmfleet/pkg/domain/fleet/db"
	kpg "github.com/vmfleet/vmfleet/pkg/domain/fleet/db/postgres"
	"github.com/vmfleet/vmfleet/pkg/server"
	"github.com/vmfleet/vmfleet/pkg/utils/echoutil"
	"github.com/vmfleet/vmfleet/pkg/utils/filewatch"
	"github.com/vmfleet/vmfleet/pkg/utils/retry"
)

func main() {
	configPath := flag.String("config", os.Getenv("FLEETD_CONFIG"), "server config path")
	loglevel := flag.String("loglevel", "info", "log level for the admin API. debug|info|warn|error|off")
	flag.Parse()

	logger := log.New(os.Stderr, "[fleetd] ", log.LstdFlags)

	conf, err := kcs.LoadServerConfig(*configPath)
	if err != nil {
		logger.Fatalf("can not read configration: %s", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	if *configPath != "" {
		// quit when the config file changes, so the supervisor restarts
		// the daemon with fresh config.
		wctx, stopWatch, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			logger.Fatalf("can not watch configration: %s", err)
		}
		defer stopWatch()
		ctx = wctx
	}

	db, err := getDBAccesor(ctx, conf.DBURL(), logger)
	if err != nil {
		logger.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatalf("can not ensure schema: %s", err)
	}

	lis, err := net.Listen("tcp", conf.ListenAddress())
	if err != nil {
		logger.Fatalf("can not listen on %s: %s", conf.ListenAddress(), err)
	}
	logger.Printf("listening on %s", conf.ListenAddress())

	srv := server.New(conf.AuthPassword, db.Machines(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, lis)
	}()

	go runConsole(ctx, os.Stdin, os.Stdout, db.Machines(), srv.Registry(), cancel)

	if conf.AdminPort != "" {
		e := newAdminServer(db, srv.Registry(), *loglevel)
		go func() {
			if err := e.Start(":" + conf.AdminPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("admin api: %s", err)
			}
		}()
		defer func() {
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				logger.Printf("error on admin api shutdown: %s", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Println("shutting down")
		if err := <-errCh; err != nil {
			logger.Printf("server stopped with error: %s", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("server stopped with error: %s", err)
		}
	}
}

// getDBAccesor connects with a bounded retry, so that the daemon
// survives the database still coming up.
func getDBAccesor(ctx context.Context, dburl string, logger *log.Logger) (kdb.FleetDatabase, error) {
	backoff := retry.WithLimit(5, retry.StaticBackoff(5*time.Second))
	return retry.Blocking(ctx, backoff, func() (kdb.FleetDatabase, error) {
		db, err := kpg.New(ctx, dburl)
		if err != nil {
			logger.Printf("database is not ready: %s", err)
			return nil, retry.ErrRetry
		}
		return db, nil
	})
}

func newAdminServer(db kdb.FleetDatabase, registry *server.Registry, loglevel string) *echo.Echo {
	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	e.GET("/api/machines/", handlers.GetMachinesHandler(db.Machines(), registry.Snapshot))
	e.GET("/api/machines/:vmId/", handlers.GetMachineHandler(db.Machines(), "vmId"))
	e.GET("/api/disks/", handlers.GetDisksHandler(db.Machines()))
	e.GET("/health/", handlers.HealthHandler(db.Ping))

	return e
}
