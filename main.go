// main is the entry point for the riskscan CLI.
package main

import (
	"github.com/huangsam/riskscan/cmd"
	"github.com/huangsam/riskscan/internal/contract"
)

func main() {
	err := cmd.Execute()
	if shutdownErr := cmd.Shutdown(); shutdownErr != nil {
		contract.LogWarn("Shutdown did not complete cleanly", shutdownErr)
	}
	if err != nil {
		contract.LogFatal("riskscan failed", err)
	}
}
