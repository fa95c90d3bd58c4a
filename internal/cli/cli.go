// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/treetext/internal/config"
	"github.com/temirov/treetext/internal/fsys"
	"github.com/temirov/treetext/internal/services/clipboard"
	"github.com/temirov/treetext/internal/services/stream"
	"github.com/temirov/treetext/internal/tree"
	"github.com/temirov/treetext/internal/utils"
)

const (
	configFlagName        = "config"
	configFlagDescription = "configuration file (default ./" + utils.LocalConfigFileName + ")"
	rootUse               = utils.ApplicationName + " [root]"
	rootShortDescription  = "render a directory as an ASCII tree"
	rootLongDescription   = `treetext lists a directory hierarchy as an ASCII tree.
Entries are sorted by name, hidden entries are skipped unless --include-hidden is set,
and --exclude / --exclude-path drop entries by name or by path relative to the root.
Running treetext without a subcommand renders the tree, same as "treetext tree".`

	errorNilWalker = "cli: tree walker is nil"
)

// dependencies carries the collaborators shared by every command.
type dependencies struct {
	logger     *zap.Logger
	walker     *tree.Walker
	copier     clipboard.Copier
	fileSystem afero.Fs
	// configuration seeds config.LoadApplicationConfiguration; the --config
	// flag fills in ExplicitFilePath.
	configuration config.LoadOptions
}

func defaultDependencies(logger *zap.Logger) dependencies {
	if logger == nil {
		logger = zap.NewNop()
	}
	return dependencies{
		logger:     logger,
		walker:     tree.NewWalker(fsys.NewOSLister(), logger),
		copier:     clipboard.NewService(),
		fileSystem: afero.NewOsFs(),
	}
}

// Execute runs the treetext application with the process arguments.
func Execute(ctx context.Context, logger *zap.Logger) error {
	rootCommand := newRootCommand(defaultDependencies(logger))
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return fang.Execute(
		ctx,
		rootCommand,
		fang.WithVersion(utils.GetApplicationVersion()),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	)
}

// newRootCommand builds the root Cobra command. The root renders a tree
// itself so that "treetext ./dir" and "treetext tree ./dir" behave alike.
func newRootCommand(deps dependencies) *cobra.Command {
	var configPath string
	var flags treeFlags

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      treeUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runTreeCommand(command, arguments, &flags, deps.withConfigPath(configPath))
		},
	}
	rootCommand.PersistentFlags().StringVar(&configPath, configFlagName, "", configFlagDescription)
	bindTreeFlags(rootCommand, &flags)
	rootCommand.AddCommand(
		newTreeCommand(deps, &configPath),
		newInitCommand(deps),
		newMCPCommand(deps, &configPath),
	)
	return rootCommand
}

func (deps dependencies) withConfigPath(configPath string) dependencies {
	deps.configuration.ExplicitFilePath = configPath
	return deps
}

func (deps dependencies) loadConfiguration() (config.ApplicationConfiguration, error) {
	options := deps.configuration
	options.FileSystem = deps.fileSystem
	return config.LoadApplicationConfiguration(options)
}

// streamTree runs the stream producer for configuration and hands every
// event to consume.
func (deps dependencies) streamTree(ctx context.Context, configuration tree.Configuration, consume func(stream.Event) error) error {
	if deps.walker == nil {
		return errors.New(errorNilWalker)
	}
	producer := func(streamCtx context.Context, events chan<- stream.Event) error {
		return stream.StreamTree(streamCtx, deps.walker, stream.TreeOptions{Configuration: configuration}, events)
	}
	return dispatchStream(ctx, producer, consume)
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	return group.Wait()
}
