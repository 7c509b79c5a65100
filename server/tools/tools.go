package tools

import (
	"context"

	mcp "github.com/metoro-io/mcp-golang"
)

// RegisterAllTools - Register all tools with the server. Tool calls run
// under ctx.
func RegisterAllTools(ctx context.Context, mcpServer *mcp.Server, deployer Deployer) error {
	if err := RegisterPlanTool(mcpServer, deployer); err != nil {
		return err
	}
	if err := RegisterCheckTool(ctx, mcpServer, deployer); err != nil {
		return err
	}
	if err := RegisterApplyTool(ctx, mcpServer, deployer); err != nil {
		return err
	}
	return nil
}
