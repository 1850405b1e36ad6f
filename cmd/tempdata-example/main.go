package main

import (
	"os"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/cmd/tempdata-example/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
