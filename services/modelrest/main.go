// Command modelrest serves a REST API for a set of models.
//
//	MODELS_FILE=models.yaml modelrest serve
//	modelrest routes --models models.yaml --convenience
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
