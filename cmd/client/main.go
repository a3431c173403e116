package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/cli"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}
