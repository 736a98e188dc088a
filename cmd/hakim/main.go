package main

import (
	"log"

	"github.com/modernice/hakim/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	cli.New().Run()
}
