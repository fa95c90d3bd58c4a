package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	// TreeToolName is the tool name clients call to render a tree.
	TreeToolName        = "tree"
	treeToolDescription = "Render a directory as an ASCII tree. Hidden entries are skipped unless includeHidden is set. " +
		"exclude holds glob patterns matched against entry names and excludePath patterns matched against paths relative to root."

	logMessageToolFailed = "tool call failed"
	logFieldTool         = "tool"
)

// TreeToolInput contains parameters for the tree tool.
type TreeToolInput struct {
	Root          string   `json:"root,omitempty" jsonschema:"Directory to render (default: the server's working directory)"`
	IncludeHidden bool     `json:"includeHidden,omitempty" jsonschema:"Include entries whose names start with a dot"`
	MaxDepth      *int     `json:"maxDepth,omitempty" jsonschema:"Deepest level to list; 1 lists only the root's children (default: unlimited)"`
	Exclude       []string `json:"exclude,omitempty" jsonschema:"Glob patterns matched against entry names"`
	ExcludePath   []string `json:"excludePath,omitempty" jsonschema:"Glob patterns matched against slash-separated paths relative to root"`
	IgnoreCase    bool     `json:"ignoreCase,omitempty" jsonschema:"Match patterns without regard to case"`
}

// TreeToolOutput contains the rendered tree.
type TreeToolOutput struct {
	Tree  string `json:"tree"`
	Lines int    `json:"lines"`
}

// TreeToolFunc renders the tree described by input.
type TreeToolFunc func(ctx context.Context, input TreeToolInput) (TreeToolOutput, error)

// ToolServerConfig defines the stdio tool server.
type ToolServerConfig struct {
	Name    string
	Version string
	Tree    TreeToolFunc
	Logger  *zap.Logger
}

// NewToolServer builds a Model Context Protocol server exposing the tree tool.
func NewToolServer(config ToolServerConfig) (*sdk.Server, error) {
	if config.Tree == nil {
		return nil, errors.New("mcp: tree tool handler is nil")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	server := sdk.NewServer(&sdk.Implementation{
		Name:    config.Name,
		Version: config.Version,
	}, nil)
	sdk.AddTool(server, &sdk.Tool{
		Name:        TreeToolName,
		Description: treeToolDescription,
	}, treeToolHandler(config.Tree, logger))
	return server, nil
}

// RunStdio serves the tree tool over stdin and stdout until ctx is canceled
// or the client disconnects.
func RunStdio(ctx context.Context, config ToolServerConfig) error {
	server, err := NewToolServer(config)
	if err != nil {
		return err
	}
	if runErr := server.Run(ctx, &sdk.StdioTransport{}); runErr != nil {
		return fmt.Errorf("run stdio server: %w", runErr)
	}
	return nil
}

func treeToolHandler(render TreeToolFunc, logger *zap.Logger) func(context.Context, *sdk.CallToolRequest, TreeToolInput) (*sdk.CallToolResult, TreeToolOutput, error) {
	return func(ctx context.Context, req *sdk.CallToolRequest, input TreeToolInput) (*sdk.CallToolResult, TreeToolOutput, error) {
		result, err := render(ctx, input)
		if err != nil {
			logger.Warn(logMessageToolFailed, zap.String(logFieldTool, TreeToolName), zap.Error(err))
			return &sdk.CallToolResult{IsError: true}, TreeToolOutput{}, err
		}
		return nil, result, nil
	}
}
