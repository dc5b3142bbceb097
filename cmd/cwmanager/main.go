package main

import (
	"os"

	"cwmanager/internal/cli"
)

func main() { os.Exit(cli.Main()) }
