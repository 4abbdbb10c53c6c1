package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"

	"github.com/somnial/somnial/internal/cmdopts"
	"github.com/somnial/somnial/internal/log"
	"github.com/somnial/somnial/internal/storage"
	"github.com/somnial/somnial/internal/webserver"
)

// setupCloseHandler creates a 'listener' on a new goroutine which will notify the
// program if it receives an interrupt from the OS. We then handle this by calling
// our clean up procedure and exiting the program.
func setupCloseHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.GetLogger(mainCtx).Debug("SetupCloseHandler received an interrupt from OS. Closing session...")
		cancel()
		exitCode.Store(cmdopts.ExitCodeUserCancel)
	}()
}

var (
	exitCode atomic.Int32       // Exit code to be returned to the OS
	mainCtx  context.Context    // Main context for the application
	cancel   context.CancelFunc // Cancel function to stop the main context
	logger   log.Logger         // Logger for the application
	opts     *cmdopts.Options   // Command line options for the application
	err      error
)

var Exit = os.Exit

func main() {

	exitCode.Store(cmdopts.ExitCodeOK)
	defer func() {
		if err := recover(); err != nil {
			exitCode.Store(cmdopts.ExitCodeFatalError)
			log.GetLogger(mainCtx).WithField("callstack", string(debug.Stack())).Error(err)
		}
		Exit(int(exitCode.Load()))
	}()

	mainCtx, cancel = context.WithCancel(context.Background())
	setupCloseHandler(cancel)
	defer cancel()

	if opts, err = cmdopts.New(os.Stdout); err != nil {
		printVersion()
		fmt.Println(err)
		if !opts.Help {
			exitCode.Store(cmdopts.ExitCodeConfigError)
		}
		return
	}

	logger = log.Init(opts.Logging)
	mainCtx = log.WithLogger(mainCtx, logger)

	logger.Debugf("opts: %+v", opts)

	store, err := storage.NewPointStore(mainCtx, opts.Store.Store)
	if err != nil {
		exitCode.Store(cmdopts.ExitCodeConfigError)
		logger.Error(err)
		return
	}
	defer store.Close()

	// the schema ledger must be reconciled before any traffic is accepted
	if err = store.Migrate(); err != nil {
		exitCode.Store(cmdopts.ExitCodeUpgradeError)
		logger.Error("schema migration failed: ", err)
		return
	}

	if _, err = webserver.Init(mainCtx, opts.WebUI, store, store); err != nil {
		exitCode.Store(cmdopts.ExitCodeWebUIError)
		logger.Error("failed to initialize web server: ", err)
		return
	}

	logger.WithField("addr", opts.WebUI.WebAddr).Info("somnial is accepting points")
	<-mainCtx.Done()
}
