// Package main is the entry point for the skippy CLI.
package main

import "skippy.dev/pkg/skippy/cmd"

func main() {
	cmd.Execute()
}
