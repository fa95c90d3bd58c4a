package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/temirov/treetext/internal/cli"
	"github.com/temirov/treetext/internal/utils"
)

// main is the entry point for the treetext command.
func main() {
	// a missing .env is the common case
	_ = godotenv.Load()

	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.Execute(ctx, loggerInstance)
	stop()
	_ = loggerInstance.Sync()
	if executionError != nil {
		// fang has already printed the error
		os.Exit(1)
	}
}
