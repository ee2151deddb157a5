// Command dbcrossbar is the CLI entry point (§6): cp, count, schema
// conv, config add/rm, features, license. Exit codes follow §6: 0
// success, 1 generic failure, 2 usage error.
package main

import (
	"os"

	"github.com/dbcrossbar/dbcrossbar/cmd/dbcrossbar/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
