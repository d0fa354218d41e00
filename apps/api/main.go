package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/elimuhub/elimu/apps/api/echo"
	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/shop"
	"github.com/elimuhub/elimu/core/user"
	emailsvc "github.com/elimuhub/elimu/services/email"
	logsvc "github.com/elimuhub/elimu/services/logger"
	paymentsvc "github.com/elimuhub/elimu/services/payment"
	rediscart "github.com/elimuhub/elimu/storage/cart/redis"
	"github.com/elimuhub/elimu/storage/database"
	sqlxrepos "github.com/elimuhub/elimu/storage/database/sqlx"
	restledger "github.com/elimuhub/elimu/storage/ledger/rest"
)

func main() {
	conf := core.Conf

	// =========================================================================
	// Set up Dependencies

	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = core.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std)
	}

	// set up user DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))

	ledger := restledger.NewPurchaseLedger(conf.Ledger.BaseURL, conf.Ledger.Timeout)

	redisClient, err := rediscart.NewClient(context.Background(), conf.Redis.URL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	cartRepo := rediscart.NewCartRepository(redisClient, conf.Redis.CartTTL)

	entSvc := shop.NewEntitlementService(ledger)
	cartSvc := shop.NewCartService(cartRepo, entSvc)
	checkoutSvc := shop.NewCheckoutService(cartSvc, paymentsvc.NewDummyGateway(logger), ledger, mailSvc, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Logger:         logger,
		UserSvc:        usrSvc,
		CartSvc:        cartSvc,
		CheckoutSvc:    checkoutSvc,
		EntitlementSvc: entSvc,
		Ledger:         ledger,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
