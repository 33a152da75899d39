package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"

	"bucketfs/internal/cli"
)

func main() {
	log.SetHandler(text.New(os.Stderr))
	if os.Getenv("BUCKETFS_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bucketfs: %v\n", err)
		os.Exit(1)
	}
}
