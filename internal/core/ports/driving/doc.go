// Package driving defines what the CLI and the MCP server can ask of the
// core: process files, search the index, manage stored documents and watch
// a directory. The services package implements every interface here.
package driving
