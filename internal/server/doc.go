// Package server implements the MCP (Model Context Protocol) server for the
// license plate tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
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
// Photo Information:
//   - image_load: Load a photo and describe it
//   - image_dimensions: Get width and height
//   - image_crop: Extract a rectangular region
//
// Plate Pipeline:
//   - plate_locate: Find the plate region in a vehicle photo
//   - plate_enhance: Binarize a plate and keep stroke shaped components
//   - plate_segment: Split a plate into ordered character crops
//   - plate_recognize: Segment and classify the characters with Tesseract
//     or a directory of glyph templates
//   - plate_translate: Map labels to display symbols and back
//
// Every pipeline call gets a fresh run ID. It appears in the response, in
// debug log lines as run=<id> and in the names of dumped stage images.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000. Pipeline errors are prefixed by the failing stage, for example
// "locate: detection: no plate region found".
package server
