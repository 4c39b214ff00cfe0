// Package server implements the MCP (Model Context Protocol) server for palm reading.
//
// This package provides a JSON-RPC 2.0 server that exposes the palm-line
// pipeline, the reading generator and speech synthesis through the MCP
// protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image and Pipeline:
//   - palm_load: Load a photo and get metadata
//   - palm_extract_features: Length, area and vertex count of each palm line
//   - palm_edge_map: Normalized frame or edge map as PNG
//   - palm_overlay: Detected lines drawn over the normalized frame
//   - palm_list_folder: Photos in the sample folder
//
// Readings:
//   - palm_reading: Features plus a generated reading, optionally translated or spoken
//   - palm_ask: Answer a follow-up question about a reading
//   - palm_translate: Translate a reading
//   - palm_speak: Render text as MP3 speech
//
// # Caching
//
// Decoded photos are cached in memory by path for the lifetime of the
// process. When a store is configured, readings are also cached on disk by
// image content and language, so a photo seen before is not sent to the
// generator again.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Translation and speech failures inside palm_reading do not fail the call;
// they are reported next to the reading.
//
// # Usage
//
//	srv := server.New(server.Options{Oracle: o, Synthesizer: tts})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
