package main

import (
	"context"

	"github.com/spf13/cobra"

	"chronomap/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := stderrLogger(cfg)
	if err != nil {
		return err
	}
	session, err := loadSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	server := mcp.NewServer(session, logger, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
