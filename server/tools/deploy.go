package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cnosuke/deploy-gcp/orchestrator"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"
)

// Deployer defines the operations exposed as tools
type Deployer interface {
	Plan(all bool) (string, error)
	Check(ctx context.Context, showAll bool) (string, bool)
	Apply(ctx context.Context, only []string) (orchestrator.Summary, error)
}

// PlanArgs - Arguments for deploy_plan tool
type PlanArgs struct {
	All bool `json:"all,omitempty" jsonschema:"description=Also list the raw values from .env.infra, .env.secrets and .env.services"`
}

// CheckArgs - Arguments for deploy_check tool
type CheckArgs struct {
	All bool `json:"all,omitempty" jsonschema:"description=List every finding instead of only the issues"`
}

// ApplyArgs - Arguments for deploy_apply tool
type ApplyArgs struct {
	Only string `json:"only,omitempty" jsonschema:"description=Comma separated sections to deploy. Empty deploys every enabled section"`
}

// CheckResult is the deploy_check response body
type CheckResult struct {
	HasIssues bool   `json:"has_issues"`
	Report    string `json:"report"`
}

// ApplyResult is the deploy_apply response body
type ApplyResult struct {
	orchestrator.Summary
	Report string `json:"report,omitempty"`
	Error  string `json:"error,omitempty"`
}

func textResponse(text string) *mcp.ToolResponse {
	return mcp.NewToolResponse(mcp.NewTextContent(text))
}

func jsonResponse(v any) (*mcp.ToolResponse, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		zap.S().Errorw("failed to marshal result to JSON", "error", err)
		return nil, err
	}
	return textResponse(string(jsonBytes)), nil
}

// RegisterPlanTool - Register the deploy_plan tool
func RegisterPlanTool(mcpServer *mcp.Server, deployer Deployer) error {
	zap.S().Debugw("registering deploy_plan tool")
	return mcpServer.RegisterTool("deploy_plan",
		"Show the deploy plan: project, region, configuration summary and which sections are ENABLED or SKIPPED. Calls no cloud tool.",
		planHandler(deployer))
}

func planHandler(deployer Deployer) func(args PlanArgs) (*mcp.ToolResponse, error) {
	return func(args PlanArgs) (*mcp.ToolResponse, error) {
		report, err := deployer.Plan(args.All)
		if err != nil {
			zap.S().Errorw("failed to build plan", "error", err)
			return textResponse(fmt.Sprintf("Plan failed: %s", err.Error())), nil
		}
		return textResponse(report), nil
	}
}

// RegisterCheckTool - Register the deploy_check tool
func RegisterCheckTool(ctx context.Context, mcpServer *mcp.Server, deployer Deployer) error {
	zap.S().Debugw("registering deploy_check tool")
	return mcpServer.RegisterTool("deploy_check",
		"Inspect the project, APIs, Artifact Registry, GCS, BigQuery, Cloud SQL and Secret Manager without changing anything.",
		checkHandler(ctx, deployer))
}

func checkHandler(ctx context.Context, deployer Deployer) func(args CheckArgs) (*mcp.ToolResponse, error) {
	return func(args CheckArgs) (*mcp.ToolResponse, error) {
		report, hasIssues := deployer.Check(ctx, args.All)
		return jsonResponse(CheckResult{HasIssues: hasIssues, Report: report})
	}
}

// RegisterApplyTool - Register the deploy_apply tool
func RegisterApplyTool(ctx context.Context, mcpServer *mcp.Server, deployer Deployer) error {
	zap.S().Debugw("registering deploy_apply tool")
	description := fmt.Sprintf(
		"Create or update the configured resources and deploy. Sections: %v.",
		orchestrator.Sections)
	return mcpServer.RegisterTool("deploy_apply", description, applyHandler(ctx, deployer))
}

func applyHandler(ctx context.Context, deployer Deployer) func(args ApplyArgs) (*mcp.ToolResponse, error) {
	return func(args ApplyArgs) (*mcp.ToolResponse, error) {
		only := orchestrator.ParseSectionList(args.Only)
		zap.S().Infow("executing deploy_apply", "only", only)

		summary, err := deployer.Apply(ctx, only)
		result := ApplyResult{Summary: summary}
		if summary.RunID != "" {
			result.Report = summary.Render()
		}
		if err != nil {
			zap.S().Errorw("deploy failed", "error", err)
			result.Error = err.Error()
		}
		return jsonResponse(result)
	}
}
