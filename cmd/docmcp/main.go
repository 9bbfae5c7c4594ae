package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/docmcp/internal/cli"
	"github.com/temirov/docmcp/internal/utils"
)

// main is the entry point for the docmcp command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		if errors.Is(applicationExecutionError, cli.ErrToolResult) {
			loggerInstance.Sync()
			os.Exit(1)
		}
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
