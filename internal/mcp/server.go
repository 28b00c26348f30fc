// Package mcp exposes an explorer session as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"chronomap/internal/explorer"
	"chronomap/internal/logging"
)

type Server struct {
	session *explorer.Session
	logger  *log.Logger
	mcp     *sdk.Server
}

func NewServer(session *explorer.Session, logger *log.Logger, version string) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		session: session,
		logger:  logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "chronomap",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
