package main

import (
	"os"

	sassycmder "github.com/papercomputeco/sassy/cmd/sassy"
)

func main() {
	cmd := sassycmder.NewSassyCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
