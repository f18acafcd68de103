package main

import (
	"os"

	"github.com/awmpietro/golang-bayes-inference-case/cmd/bayesq/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
