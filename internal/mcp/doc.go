// Package mcp provides the Model Context Protocol (MCP) server for mathviz using mcp-go.
//
// The server lets AI assistants turn natural-language descriptions into Manim scene
// scripts and then work with the results: save them to the mirror, render them,
// file them as knowledge notes and archive them in git.
//
// # Tools
//
//   - nlp_to_manim: run the pipeline and return the result record
//   - save_animation: run the pipeline and save the script to the mirror
//   - render_animation: save the script and render it with the Manim CLI
//   - ingest_animation_note: write a vault note describing the animation
//   - archive_animation: commit the script and request snapshot to the archive
//   - list_animations, read_animation, search_mirror: browse the mirror
//   - build_notes_index: regenerate the vault index
//
// # Security
//
// Every file access goes through storage.Mirror, so the configured allow and forbid
// lists apply to tool arguments. Scripts are checked with fileops.ValidateScriptSecurity
// before they are written or rendered.
//
// # Usage
//
// The MCP server is typically started as a subprocess by AI assistants:
//
//	mathviz mcp
//
// It reads JSON-RPC requests from stdin and writes responses to stdout until EOF.
// Logs go to stderr or the debug log file, never to stdout.
package mcp
