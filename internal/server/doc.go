// Package server implements the MCP (Model Context Protocol) server for photo editing tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and exposes
// the adjustment pipeline and a few inspection helpers as tools.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Editing:
//   - photo_process: Apply a preset and settings, write the result
//   - photo_process_batch: Same edit over many photos, run concurrently
//   - photo_preview: Downscaled render returned inline
//   - photo_presets: List the preset catalog
//
// Inspection:
//   - photo_load: Dimensions, format and size
//   - photo_sample_color: Colour at one or more pixels
//   - photo_subject_mask: The retouch subject mask as an image
//
// # Photo Caching
//
// Single-photo tools share an in-memory cache keyed by path. Batch runs read
// each file directly so that a large batch does not pin every photo in memory.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000 and the Go
// error string as data. Pipeline error kinds (invalid parameter, decode and
// encode failures) show up as prefixes of that string.
package server
