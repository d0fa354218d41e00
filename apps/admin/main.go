package main

import (
	"log"
	"os"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/user"
	"github.com/elimuhub/elimu/storage/database"
	sqlxrepos "github.com/elimuhub/elimu/storage/database/sqlx"
	restledger "github.com/elimuhub/elimu/storage/ledger/rest"
)

func main() {
	conf := core.Conf

	db, err := database.Open(conf)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer func() { _ = db.Close() }()

	cli := &commandLine{
		usrSvc:  user.NewService(sqlxrepos.NewUserRepository(db)),
		ledger:  restledger.NewPurchaseLedger(conf.Ledger.BaseURL, conf.Ledger.Timeout),
		migrate: func() error { return database.Migrate(db) },
	}

	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}
