package storage

// CmdOpts specifies the point store configuration
type CmdOpts struct {
	Store string `long:"store" mapstructure:"store" description:"Postgres URI where points will be stored" env:"SOMNIAL_STORE"`
}
