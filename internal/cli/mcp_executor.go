package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp/syntax"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/treetext/internal/output"
	"github.com/temirov/treetext/internal/services/mcp"
	"github.com/temirov/treetext/internal/services/stream"
	"github.com/temirov/treetext/internal/tree"
	"github.com/temirov/treetext/internal/utils"
)

const (
	mcpUse              = "mcp"
	mcpShortDescription = "serve tree rendering to tools"
	mcpLongDescription  = `Run a server that renders trees on request.
By default an HTTP server lists its commands at GET /capabilities and renders
trees at POST /commands/tree. With --stdio the Model Context Protocol is spoken
on standard input and output and a "tree" tool is exposed.`
	addressFlagName        = "address"
	stdioFlagName          = "stdio"
	addressFlagDescription = "HTTP listen address; overrides mcp.address from configuration, which falls back to 127.0.0.1 on a free port"
	stdioFlagDescription   = "serve the Model Context Protocol over stdin and stdout"
	listeningTemplate      = "MCP server listening on %s\n"
)

func newMCPCommand(deps dependencies, configPath *string) *cobra.Command {
	var address string
	var stdio bool

	mcpCommand := &cobra.Command{
		Use:   mcpUse,
		Short: mcpShortDescription,
		Long:  mcpLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			resolved := deps.withConfigPath(*configPath)
			if stdio {
				return mcp.RunStdio(command.Context(), mcp.ToolServerConfig{
					Name:    utils.ApplicationName,
					Version: utils.GetApplicationVersion(),
					Tree:    resolved.treeTool,
					Logger:  resolved.logger,
				})
			}
			if !command.Flags().Changed(addressFlagName) {
				applicationConfiguration, loadErr := resolved.loadConfiguration()
				if loadErr != nil {
					return loadErr
				}
				address = applicationConfiguration.MCP.Address
			}
			return resolved.startMCPServer(command.Context(), address, func(boundAddress string) {
				fmt.Fprintf(command.OutOrStdout(), listeningTemplate, boundAddress)
			})
		},
	}
	mcpCommand.Flags().StringVar(&address, addressFlagName, "", addressFlagDescription)
	registerBooleanFlag(mcpCommand.Flags(), &stdio, stdioFlagName, false, stdioFlagDescription)
	return mcpCommand
}

func (deps dependencies) startMCPServer(ctx context.Context, address string, notify func(string)) error {
	server, err := mcp.NewServer(mcp.Config{
		Address: address,
		Tree:    deps.executeTreeCommand,
		Logger:  deps.logger,
	})
	if err != nil {
		return err
	}
	return server.Run(ctx, notify)
}

func (deps dependencies) executeTreeCommand(commandContext context.Context, request mcp.TreeRequest) (mcp.TreeResponse, error) {
	format, formatErr := output.NormalizeFormat(request.Format)
	if formatErr != nil {
		return mcp.TreeResponse{}, invalidTreeRequest(formatErr)
	}
	configuration := tree.Configuration{
		Root:          resolveRoot(request.Root),
		IncludeHidden: resolveBoolean(request.IncludeHidden, false),
		MaxDepth:      request.MaxDepth,
		NamePatterns:  utils.NormalizePatterns(request.Exclude),
		PathPatterns:  utils.NormalizePatterns(request.ExcludePath),
		IgnoreCase:    resolveBoolean(request.IgnoreCase, false),
	}

	var outputBuffer bytes.Buffer
	renderer, rendererErr := output.NewStreamRenderer(&outputBuffer, nil, output.RendererOptions{
		Format:         format,
		IncludeSummary: resolveBoolean(request.Summary, false),
	})
	if rendererErr != nil {
		return mcp.TreeResponse{}, invalidTreeRequest(rendererErr)
	}
	var warnings []string
	if streamErr := deps.streamTree(commandContext, configuration, collectWarnings(renderer.Handle, &warnings)); streamErr != nil {
		if isRequestFault(streamErr) {
			return mcp.TreeResponse{}, invalidTreeRequest(streamErr)
		}
		return mcp.TreeResponse{}, fmt.Errorf("execute tree: %w", streamErr)
	}
	if flushErr := renderer.Flush(); flushErr != nil {
		return mcp.TreeResponse{}, flushErr
	}
	return mcp.TreeResponse{
		Output:   outputBuffer.String(),
		Format:   format,
		Warnings: warnings,
	}, nil
}

// treeTool backs the stdio tree tool.
func (deps dependencies) treeTool(ctx context.Context, input mcp.TreeToolInput) (mcp.TreeToolOutput, error) {
	if deps.walker == nil {
		return mcp.TreeToolOutput{}, errors.New(errorNilWalker)
	}
	lines, err := deps.walker.Render(ctx, tree.Configuration{
		Root:          resolveRoot(input.Root),
		IncludeHidden: input.IncludeHidden,
		MaxDepth:      input.MaxDepth,
		NamePatterns:  utils.NormalizePatterns(input.Exclude),
		PathPatterns:  utils.NormalizePatterns(input.ExcludePath),
		IgnoreCase:    input.IgnoreCase,
	})
	if err != nil {
		return mcp.TreeToolOutput{}, err
	}
	return mcp.TreeToolOutput{Tree: output.JoinLines(lines), Lines: len(lines)}, nil
}

// collectWarnings returns a consumer that forwards events to next and records
// warning messages.
func collectWarnings(next func(stream.Event) error, warnings *[]string) func(stream.Event) error {
	return func(event stream.Event) error {
		if event.Kind == stream.EventKindWarning && event.Message != nil {
			*warnings = append(*warnings, event.Message.Message)
		}
		return next(event)
	}
}

// isRequestFault reports rejected roots, depths and patterns.
func isRequestFault(err error) bool {
	var patternError *syntax.Error
	return errors.Is(err, tree.ErrInvalidConfiguration) || errors.As(err, &patternError)
}

func invalidTreeRequest(err error) error {
	return fmt.Errorf("%w: %w", mcp.ErrInvalidRequest, err)
}

func resolveRoot(root string) string {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return defaultRoot
	}
	return trimmed
}

func resolveBoolean(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}
