// solverstub is a local stand-in for the exam-scheduling service. It implements
// the service's HTTP surface (auth, generation, publishing, the public
// schedule) over an in-memory store and a deterministic placeholder generator,
// so the client can be developed and tested without the real solver.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/examplan/core"
	usr "github.com/trezcool/examplan/core/user"
	logsvc "github.com/trezcool/examplan/services/logger"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "STUB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	db := openDB()
	if conf.Stub.AdminPassword != "" {
		if _, err := db.createUser(conf.Stub.AdminUsername, conf.Stub.AdminPassword, usr.RoleAdmin); err != nil {
			logger.Fatal(fmt.Sprintf("seeding admin user: %v", err), err)
		}
		logger.Info(fmt.Sprintf("admin user %q ready", conf.Stub.AdminUsername))
	} else {
		logger.Warn("no admin password configured; privileged endpoints will reject everyone")
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		DB:         db,
		Validate:   validate,
		Translator: translator,
		Shutdown:   shutdown,
	})

	go func() {
		logger.Info(fmt.Sprintf("solver stub listening on %s", conf.Stub.Addr))
		server.Start()
	}()
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), conf.Stub.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
