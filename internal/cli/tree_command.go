package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/treetext/internal/config"
	"github.com/temirov/treetext/internal/output"
	"github.com/temirov/treetext/internal/tree"
	"github.com/temirov/treetext/internal/utils"
)

const (
	includeHiddenFlagName = "include-hidden"
	maxDepthFlagName      = "max-depth"
	excludeFlagName       = "exclude"
	excludePathFlagName   = "exclude-path"
	excludeFromFlagName   = "exclude-from"
	ignoreCaseFlagName    = "ignore-case"
	formatFlagName        = "format"
	summaryFlagName       = "summary"
	outputFlagName        = "output"
	outputFlagShorthand   = "o"
	clipboardFlagName     = "clipboard"
	defaultRoot           = "."
	treeUse               = "tree [root]"
	treeAlias             = "t"
	treeShortDescription  = "display directory tree (" + treeAlias + ")"

	// treeLongDescription provides detailed help for the tree command.
	treeLongDescription = `List the directories and files below root, one line per entry.
Use --format to select raw, json, or xml output and --output to write the tree to a file.`
	// treeUsageExample demonstrates tree command usage.
	treeUsageExample = `  # Render the current directory two levels deep
  treetext tree --max-depth 2

  # Skip logs and the build output directory
  treetext tree --exclude '*.log' --exclude-path 'build/*' .

  # Save the tree of ./cmd as JSON
  treetext tree --format json -o tree.json ./cmd`

	includeHiddenFlagDescription = "include entries whose names start with a dot"
	maxDepthFlagDescription      = "deepest level to list; 1 lists only the root's children (default unlimited)"
	excludeFlagDescription       = "exclude entries whose name matches the glob pattern"
	excludePathFlagDescription   = "exclude entries whose path relative to root matches the glob pattern"
	excludeFromFlagDescription   = "read exclusion patterns from a file with [name] and [path] sections"
	ignoreCaseFlagDescription    = "match exclusion patterns without regard to case"
	formatFlagDescription        = "output format: raw, json, or xml"
	summaryFlagDescription       = "append a directory and file count to raw output"
	outputFlagDescription        = "write the tree to a file instead of standard output"
	clipboardFlagDescription     = "copy the rendered tree to the system clipboard"

	wroteTreeMessageFormat    = "Wrote tree for '%s' to '%s'"
	logMessageCopiedClipboard = "copied tree to clipboard"
	errorClipboardFormat      = "copy tree to clipboard: %w"
)

// treeFlags stores the values bound to tree flags.
type treeFlags struct {
	includeHidden bool
	maxDepth      int
	namePatterns  []string
	pathPatterns  []string
	exclusionFile string
	ignoreCase    bool
	format        string
	summary       bool
	outputPath    string
	clipboard     bool
}

// treeRequest is one fully resolved tree invocation.
type treeRequest struct {
	configuration tree.Configuration
	format        string
	summary       bool
	outputPath    string
	clipboard     bool
}

// newTreeCommand returns the tree subcommand.
func newTreeCommand(deps dependencies, configPath *string) *cobra.Command {
	var flags treeFlags

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return runTreeCommand(command, arguments, &flags, deps.withConfigPath(*configPath))
		},
	}
	bindTreeFlags(treeCommand, &flags)
	return treeCommand
}

// bindTreeFlags registers tree flags on the command.
func bindTreeFlags(command *cobra.Command, flags *treeFlags) {
	flagSet := command.Flags()
	registerBooleanFlag(flagSet, &flags.includeHidden, includeHiddenFlagName, false, includeHiddenFlagDescription)
	flagSet.IntVar(&flags.maxDepth, maxDepthFlagName, 0, maxDepthFlagDescription)
	flagSet.StringArrayVar(&flags.namePatterns, excludeFlagName, nil, excludeFlagDescription)
	flagSet.StringArrayVar(&flags.pathPatterns, excludePathFlagName, nil, excludePathFlagDescription)
	flagSet.StringVar(&flags.exclusionFile, excludeFromFlagName, "", excludeFromFlagDescription)
	registerBooleanFlag(flagSet, &flags.ignoreCase, ignoreCaseFlagName, false, ignoreCaseFlagDescription)
	flagSet.StringVar(&flags.format, formatFlagName, output.FormatRaw, formatFlagDescription)
	registerBooleanFlag(flagSet, &flags.summary, summaryFlagName, false, summaryFlagDescription)
	flagSet.StringVarP(&flags.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	registerBooleanFlag(flagSet, &flags.clipboard, clipboardFlagName, false, clipboardFlagDescription)
}

func runTreeCommand(command *cobra.Command, arguments []string, flags *treeFlags, deps dependencies) error {
	applicationConfiguration, loadErr := deps.loadConfiguration()
	if loadErr != nil {
		return loadErr
	}
	request, resolveErr := resolveTreeRequest(command.Flags(), arguments, *flags, applicationConfiguration.Tree, deps)
	if resolveErr != nil {
		return resolveErr
	}
	return deps.renderTree(command.Context(), request, command.OutOrStdout())
}

// resolveTreeRequest combines configuration defaults with the flags the user
// set explicitly. Exclusion patterns from every source are merged.
func resolveTreeRequest(
	flagSet *pflag.FlagSet,
	arguments []string,
	flags treeFlags,
	defaults config.TreeConfiguration,
	deps dependencies,
) (treeRequest, error) {
	request := treeRequest{
		configuration: tree.Configuration{
			Root:          defaultRoot,
			IncludeHidden: resolveBooleanSetting(flagSet, includeHiddenFlagName, flags.includeHidden, defaults.IncludeHidden),
			IgnoreCase:    resolveBooleanSetting(flagSet, ignoreCaseFlagName, flags.ignoreCase, defaults.IgnoreCase),
		},
		format:     defaults.Format,
		summary:    resolveBooleanSetting(flagSet, summaryFlagName, flags.summary, defaults.Summary),
		outputPath: flags.outputPath,
		clipboard:  resolveBooleanSetting(flagSet, clipboardFlagName, flags.clipboard, defaults.Clipboard),
	}
	if len(arguments) > 0 {
		request.configuration.Root = arguments[0]
	}
	if flagSet.Changed(maxDepthFlagName) {
		request.configuration.MaxDepth = tree.DepthLimit(flags.maxDepth)
	} else if defaults.MaxDepth != nil {
		request.configuration.MaxDepth = tree.DepthLimit(*defaults.MaxDepth)
	}
	if flagSet.Changed(formatFlagName) {
		request.format = flags.format
	}
	format, formatErr := output.NormalizeFormat(request.format)
	if formatErr != nil {
		return treeRequest{}, formatErr
	}
	request.format = format

	namePatterns := utils.MergePatterns(defaults.Exclude, flags.namePatterns)
	pathPatterns := utils.MergePatterns(defaults.ExcludePath, flags.pathPatterns)
	exclusionFile := defaults.ExcludeFrom
	if flagSet.Changed(excludeFromFlagName) {
		exclusionFile = flags.exclusionFile
	}
	if exclusionFile != "" {
		filePatterns, exclusionErr := config.LoadExclusionFile(deps.fileSystem, exclusionFile, deps.logger)
		if exclusionErr != nil {
			return treeRequest{}, exclusionErr
		}
		namePatterns = utils.MergePatterns(namePatterns, filePatterns.NamePatterns)
		pathPatterns = utils.MergePatterns(pathPatterns, filePatterns.PathPatterns)
	}
	request.configuration.NamePatterns = namePatterns
	request.configuration.PathPatterns = pathPatterns
	return request, nil
}

func resolveBooleanSetting(flagSet *pflag.FlagSet, flagName string, flagValue bool, configured *bool) bool {
	if flagSet.Changed(flagName) || configured == nil {
		return flagValue
	}
	return *configured
}

// renderTree streams the tree to stdout, or to request.outputPath when set,
// and copies the same bytes to the clipboard on request.
func (deps dependencies) renderTree(ctx context.Context, request treeRequest, stdout io.Writer) error {
	var fileBuffer bytes.Buffer
	var clipboardBuffer bytes.Buffer
	destination := stdout
	if request.outputPath != "" {
		destination = &fileBuffer
	}
	if request.clipboard {
		destination = io.MultiWriter(destination, &clipboardBuffer)
	}

	// walk errors are returned to the caller, so the renderer gets no stderr
	renderer, rendererErr := output.NewStreamRenderer(destination, nil, output.RendererOptions{
		Format:          request.format,
		IncludeSummary:  request.summary,
		TerminateOutput: request.outputPath == "",
	})
	if rendererErr != nil {
		return rendererErr
	}
	if streamErr := deps.streamTree(ctx, request.configuration, renderer.Handle); streamErr != nil {
		return streamErr
	}
	if flushErr := renderer.Flush(); flushErr != nil {
		return flushErr
	}

	if request.outputPath != "" {
		if writeErr := output.WriteFile(deps.fileSystem, request.outputPath, fileBuffer.Bytes()); writeErr != nil {
			return writeErr
		}
		deps.logger.Info(fmt.Sprintf(wroteTreeMessageFormat, request.configuration.Root, request.outputPath))
	}
	if request.clipboard {
		if copyErr := deps.copier.Copy(clipboardBuffer.String()); copyErr != nil {
			return fmt.Errorf(errorClipboardFormat, copyErr)
		}
		deps.logger.Debug(logMessageCopiedClipboard)
	}
	return nil
}
