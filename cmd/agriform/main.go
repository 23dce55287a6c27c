// agriform runs the farm survey conversation.
//
// Usage:
//
//	agriform serve                     HTTP API
//	agriform chat --language hindi     conversation on the terminal
//	agriform watch                     print lifecycle events from NATS
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
