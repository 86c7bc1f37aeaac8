// Package main is the entry point for the mathviz CLI.
//
// Without a subcommand mathviz opens the terminal UI, running the setup wizard
// first when no configuration exists. Subcommands expose the same pipeline to
// scripts and to MCP clients:
//
//	mathviz                      interactive playground
//	mathviz mcp                  MCP server over stdio
//	mathviz generate "<text>"    print the pipeline result as JSON
//	mathviz render "<text>"      save the scene script and render it
//	mathviz note "<text>"        write a vault note for the animation
//	mathviz config init|show     manage the configuration file
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		os.Exit(1)
	}
}
