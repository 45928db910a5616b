package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/founder"
	"github.com/trezcool/libdesk/core/library"
	logsvc "github.com/trezcool/libdesk/services/logger"
	"github.com/trezcool/libdesk/storage/database"
	sqlxrepos "github.com/trezcool/libdesk/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	errAndDie(err)
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(false)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		db:        db.DB,
		founders:  founder.NewService(sqlxrepos.NewFounderRepository(db)),
		libraries: library.NewService(sqlxrepos.NewLibraryRepository(db), logger),
		validate:  validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	_ = zl.Sync()

	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin: %v", err), err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
