// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes link checking and bookmark cleaning to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tabtidy/internal/bookmarkservice"
)

// Server wraps the MCP server with tabtidy tools.
type Server struct {
	mcp *server.MCPServer
	svc *bookmarkservice.Service
}

// New creates a new MCP server with all tools registered. File tools resolve
// paths inside the service's storage root.
func New(svc *bookmarkservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"tabtidy",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("check_link",
		mcp.WithDescription("Probe one URL and report whether it is reachable. "+
			"Private, loopback and denylisted hosts are rejected without a request."),
		mcp.WithString("url", mcp.Required(), mcp.Description("URL to check; a missing scheme means https")),
	), s.checkLink)

	s.mcp.AddTool(mcp.NewTool("clean_bookmarks",
		mcp.WithDescription("Validate every link in a bookmark document, remove the dead ones, "+
			"drop folders left empty, and return the cleaned document with a deletion list."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Netscape bookmark HTML or a JSON bookmark tree")),
		mcp.WithString("format", mcp.Description("html or json; detected from the content when empty")),
	), s.cleanBookmarks)

	s.mcp.AddTool(mcp.NewTool("clean_file",
		mcp.WithDescription("Clean a bookmark file inside the document directory and write the result "+
			"to another file there. Returns the run report."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Relative path of the document to clean")),
		mcp.WithString("output", mcp.Required(), mcp.Description("Relative path for the cleaned copy; must differ from input")),
	), s.cleanFile)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List bookmark documents (.html, .htm, .json) in the document directory."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_failure_reasons",
		mcp.WithDescription("Explain every reason kind a link can be removed for."),
	), s.getFailureReasons)

	s.mcp.AddResource(
		mcp.NewResource(FailureReasonsURI, "Link Failure Reasons",
			mcp.WithResourceDescription("Catalogue of failure kinds reported for removed links."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFailureReasons,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Check(ctx, url))
}

func (s *Server) cleanBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.CleanDocument(ctx, []byte(doc), req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) cleanFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output, err := req.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.svc.CleanFile(ctx, input, output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) listDocuments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.ListDocuments(req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("%s\t%d bytes", d.Path, d.Size))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getFailureReasons(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FailureReasons()), nil
}

func (s *Server) readFailureReasons(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FailureReasonsURI,
			MIMEType: "text/markdown",
			Text:     FailureReasons(),
		},
	}, nil
}
