package cmdopts

import (
	"errors"
	"fmt"
	"io"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/somnial/somnial/internal/db"
	"github.com/somnial/somnial/internal/log"
	"github.com/somnial/somnial/internal/storage"
	"github.com/somnial/somnial/internal/webserver"
)

const (
	ExitCodeOK int32 = iota
	ExitCodeConfigError
	ExitCodeWebUIError
	ExitCodeUpgradeError
	ExitCodeUserCancel
	ExitCodeFatalError
)

// Options contains the command line options.
type Options struct {
	Store   storage.CmdOpts   `group:"Store"`
	Logging log.CmdOpts       `group:"Logging"`
	WebUI   webserver.CmdOpts `group:"WebUI"`
	Help    bool

	OutputWriter io.Writer
}

// New parses the command line into a new instance of Options.
// Function prints help message only if options are incorrect.
func New(writer io.Writer) (cmdOpts *Options, err error) {
	cmdOpts = new(Options)
	parser := flags.NewParser(cmdOpts, flags.HelpFlag)
	cmdOpts.OutputWriter = writer
	nonParsedArgs, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			cmdOpts.Help = true
		}
		if !flags.WroteHelp(err) {
			parser.WriteHelp(writer)
		}
		return cmdOpts, err
	}
	if len(nonParsedArgs) > 0 { // we don't expect any non-parsed arguments
		return cmdOpts, fmt.Errorf("unknown argument(s): %v", nonParsedArgs)
	}
	err = cmdOpts.ValidateConfig()
	return
}

// Verbose returns true if the debug log is enabled
func (c *Options) Verbose() bool {
	return c.Logging.LogLevel == "debug"
}

// ValidateConfig checks if the configuration is valid
func (c *Options) ValidateConfig() error {
	if c.Store.Store == "" {
		return errors.New("--store connection string is required")
	}
	if !db.IsPgConnStr(c.Store.Store) {
		return fmt.Errorf("--store is not a Postgres connection string: %s", c.Store.Store)
	}
	if c.WebUI.WriteTimeout <= 0 || c.WebUI.WriteTimeout > time.Minute {
		return errors.New("--write-timeout must be between 0 and 1m")
	}
	return nil
}
