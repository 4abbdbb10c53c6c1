package webserver

import "time"

// CmdOpts specifies the web server command-line options
type CmdOpts struct {
	WebDisable   bool          `long:"web-disable" mapstructure:"web-disable" description:"Disable the HTTP endpoint" env:"SOMNIAL_WEBDISABLE"`
	WebAddr      string        `long:"web-addr" mapstructure:"web-addr" description:"TCP address in the form 'host:port' to listen on" default:":8080" env:"SOMNIAL_WEBADDR"`
	WriteTimeout time.Duration `long:"write-timeout" mapstructure:"write-timeout" description:"Maximum time to wait for the store when ingesting a point" default:"5s" env:"SOMNIAL_WRITE_TIMEOUT"`
}
