package main

import (
	"fmt"
	"os"

	pulsecmder "github.com/papercomputeco/pulse/cmd/pulse"
)

func main() {
	cmd := pulsecmder.NewPulseCmd()

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
