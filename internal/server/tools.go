package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kyleking/cas-sdss-mcp/internal/errors"
	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
	"github.com/kyleking/cas-sdss-mcp/internal/telemetry"
)

// Tool names exposed to clients
const (
	ToolDatabaseNames       = "get_database_names"
	ToolDatabaseDescription = "get_database_description"
	ToolTableNames          = "get_table_names"
	ToolColumns             = "get_columns"
	ToolFunctions           = "get_functions"
)

// DatabaseArgs is the input of the per-database tools
type DatabaseArgs struct {
	DatabaseName string `json:"database_name" jsonschema:"The name of the database, as listed by get_database_names."`
}

// TableArgs is the input of get_columns
type TableArgs struct {
	TableName string `json:"table_name" jsonschema:"The name of the table in the form of [Database].[Table]."`
}

type noArgs struct{}

// toolFunc computes the JSON-encodable result of a tool and its outcome label
type toolFunc func(args json.RawMessage) (any, string, error)

type toolDef struct {
	tool *mcp.Tool
	run  toolFunc
}

func (s *Server) toolDefinitions() ([]toolDef, error) {
	noArgsSchema, err := jsonschema.For[noArgs](nil)
	if err != nil {
		return nil, fmt.Errorf("build schema for %s: %w", ToolDatabaseNames, err)
	}

	databaseSchema, err := jsonschema.For[DatabaseArgs](nil)
	if err != nil {
		return nil, fmt.Errorf("build schema for %s: %w", ToolDatabaseDescription, err)
	}

	tableSchema, err := jsonschema.For[TableArgs](nil)
	if err != nil {
		return nil, fmt.Errorf("build schema for %s: %w", ToolColumns, err)
	}

	return []toolDef{
		{
			tool: &mcp.Tool{
				Name: ToolDatabaseNames,
				Description: "Returns the databases available for querying SDSS data as " +
					"[catalog_name, summary] pairs.",
				InputSchema: noArgsSchema,
			},
			run: func(json.RawMessage) (any, string, error) {
				return s.engine.ListDatabases(), telemetry.OutcomeOK, nil
			},
		},
		{
			tool: &mcp.Tool{
				Name: ToolDatabaseDescription,
				Description: "Returns the description of a given database as a [summary, remarks] pair, " +
					"or an error message when the database is unknown.",
				InputSchema: databaseSchema,
			},
			run: func(raw json.RawMessage) (any, string, error) {
				name, err := stringArg(raw, "database_name")
				if err != nil {
					return nil, telemetry.OutcomeInvalid, err
				}

				pair, err := s.engine.DescribeDatabase(name)

				return formatter.PairOrMessage(pair, err), outcome(err), nil
			},
		},
		{
			tool: &mcp.Tool{
				Name: ToolTableNames,
				Description: "Returns the tables of a given database in the form of [Database].[Table]. " +
					"An unknown database yields an empty list.",
				InputSchema: databaseSchema,
			},
			run: func(raw json.RawMessage) (any, string, error) {
				name, err := stringArg(raw, "database_name")
				if err != nil {
					return nil, telemetry.OutcomeInvalid, err
				}

				return formatter.Strings(s.engine.ListTables(name)), telemetry.OutcomeOK, nil
			},
		},
		{
			tool: &mcp.Tool{
				Name: ToolColumns,
				Description: "Returns the columns of a table named [Database].[Table] as " +
					"[column_name, description] pairs, or a one-element list holding an error message.",
				InputSchema: tableSchema,
			},
			run: func(raw json.RawMessage) (any, string, error) {
				name, err := stringArg(raw, "table_name")
				if err != nil {
					return nil, telemetry.OutcomeInvalid, err
				}

				pairs, err := s.engine.ListColumns(name)

				return formatter.PairsOrMessage(pairs, err), outcome(err), nil
			},
		},
		{
			tool: &mcp.Tool{
				Name: ToolFunctions,
				Description: "Returns the cross-match functions available for querying SDSS data as " +
					"[function_name, description] pairs.",
				InputSchema: noArgsSchema,
			},
			run: func(json.RawMessage) (any, string, error) {
				return s.engine.ListFunctions(), telemetry.OutcomeOK, nil
			},
		},
	}, nil
}

// handler adapts a toolFunc to the protocol, logging and timing every call
func (s *Server) handler(name string, run toolFunc) mcp.ToolHandler {
	return func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		logger := s.logger.WithFields(map[string]any{
			"tool":    name,
			"call_id": uuid.NewString(),
		})

		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}

		result, label, err := run(raw)
		duration := time.Since(start)
		s.metrics.ObserveToolCall(name, label, duration)

		if err != nil {
			logger.WithError(err).Warn("Rejected tool call")
			return errorResult(errors.Message(err)), nil
		}

		text, err := json.Marshal(result)
		if err != nil {
			logger.WithError(err).Error("Failed to encode tool result")
			return errorResult("failed to encode result"), nil
		}

		logger.WithFields(map[string]any{
			"outcome":  label,
			"duration": duration,
		}).Debug("Tool call completed")

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}, nil
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// stringArg extracts a required string argument
func stringArg(raw json.RawMessage, key string) (string, error) {
	if len(raw) == 0 {
		return "", errors.Newf(errors.ErrTypeValidation, "missing required argument %q", key)
	}

	var args map[string]json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeValidation, "arguments must be a JSON object")
	}

	value, ok := args[key]
	if !ok {
		return "", errors.Newf(errors.ErrTypeValidation, "missing required argument %q", key)
	}

	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", errors.Newf(errors.ErrTypeValidation, "argument %q must be a string", key)
	}

	return s, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeOK
	case errors.IsType(err, errors.ErrTypeFormat):
		return telemetry.OutcomeFormat
	default:
		return telemetry.OutcomeNotFound
	}
}
