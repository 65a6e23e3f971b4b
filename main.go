// Command reps keeps the branches of many git checkouts in step with their remotes.
package main

import (
	"fmt"
	"os"

	"github.com/temirov/reps/cmd/cli"
)

const (
	failureExitCodeConstant        = 1
	failureMessageTemplateConstant = "reps: %v\n"
)

func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}
	fmt.Fprintf(os.Stderr, failureMessageTemplateConstant, executionError)
	os.Exit(failureExitCodeConstant)
}
