// Package tools implements the MCP tool handlers for the lifecycle
// server.
//
// Each tool follows the same pattern:
// - A struct with dependencies (store, advisor, syncer) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Domain failures (validation, not found, rejected transitions) come
// back as tool error results so the caller sees the message; only
// infrastructure failures propagate as Go errors.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringListArg extracts a string array argument. Non-string elements
// are skipped.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objectArg extracts a JSON object argument.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}

// stringList declares an array-of-strings schema property.
func stringList(name string, opts ...mcp.PropertyOption) mcp.ToolOption {
	opts = append(opts, mcp.Items(map[string]any{"type": "string"}))
	return mcp.WithArray(name, opts...)
}

// domainError reports whether err is a domain failure the caller
// should see as a tool error rather than a server fault.
func domainError(err error) bool {
	var (
		validation  *lifecycle.ValidationError
		notFound    *lifecycle.NotFoundError
		badID       *lifecycle.InvalidEntityIDError
		badMove     *lifecycle.InvalidTransitionError
		incomplete  *lifecycle.IncompleteTasksError
		unapproved  *lifecycle.UnapprovedRequirementsError
		duplicate   *lifecycle.AlreadyExistsError
		badRelation *lifecycle.InvalidRelationshipError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &badID) ||
		errors.As(err, &badMove) ||
		errors.As(err, &incomplete) ||
		errors.As(err, &unapproved) ||
		errors.As(err, &duplicate) ||
		errors.As(err, &badRelation)
}

// storeResult converts a store call outcome into a tool result: domain
// errors become tool errors, infrastructure errors propagate, and the
// value is rendered as indented JSON.
func storeResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return jsonResult(v)
}

// jsonResult renders v as an indented JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tools: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
