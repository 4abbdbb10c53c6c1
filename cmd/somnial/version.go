package main

import "fmt"

// version output variables
var (
	commit      = "unknown"
	version     = "unknown"
	date        = "unknown"
	storeSchema = "00003"
)

func printVersion() {
	fmt.Printf(`
Version info:
  Version:      %s
  Store Schema: %s
  Git Commit:   %s
  Built:        %s
`, version, storeSchema, commit, date)
}
