package main

import (
	"os"

	"github.com/noah-isme/faculty-timetable-api/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
