// Package server implements the MCP (Model Context Protocol) server for the
// compositing tools.
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
// Image information:
//   - image_load: Load an image and report metadata
//   - image_dimensions: Get width and height
//   - image_sample_color: Get the colour at a pixel
//
// Compositing:
//   - image_overlay: Paint one image over another at an offset
//   - image_merge: Composite an ordered list of layers
//   - image_blend: Blend base64 images bottom to top into a PNG
//   - image_encode: Re-encode an image as PNG or JPEG
//
// Tools that produce an image return it base64-encoded together with its
// dimensions and MIME type.
//
// # Image Caching
//
// Images named by path are decoded once and cached for the lifetime of the
// server. Cached images are never painted into; overlay and merge results are
// built on fresh canvases.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors. Malformed arguments and blend
// inputs of the wrong shape use -32602; load, decode and encode failures use
// -32000. The data field carries the Go error string.
package server
