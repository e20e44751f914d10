package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docgate/docgate/docgated/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverInstance := server.New()
	defer serverInstance.Base.Close()
	if err := serverInstance.Run(ctx); err != nil {
		log.Fatal("[Docgate] Failed to start server: ", err)
	}
}
