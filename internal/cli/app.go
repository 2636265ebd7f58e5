package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scoop-go/internal/adapters"
	"scoop-go/internal/app"
)

const defaultWorkers = 4

type installOptions struct {
	NoHashCheck bool
	Workers     int
}

type searchOptions struct {
	Fuzzy bool
}

type resolveOptions struct {
	Output string
}

func newAppCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Install, inspect and remove apps",
	}
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newUninstallCommand())
	upgrade := newUpgradeCommand()
	upgrade.Aliases = append(upgrade.Aliases, "u")
	cmd.AddCommand(upgrade)
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newResolveCommand())
	return cmd
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:     "install <app>...",
		Aliases: []string{"i"},
		Short:   "Install apps and their dependencies",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), cmd, args, opts)
		},
	}
	bindInstallFlags(cmd, &opts)
	return cmd
}

func bindInstallFlags(cmd *cobra.Command, opts *installOptions) {
	cmd.Flags().BoolVar(&opts.NoHashCheck, "no-hash-check", false, "Skip hash verification of downloads")
	cmd.Flags().IntVar(&opts.Workers, "workers", defaultWorkers, "Concurrent downloads")
	_ = viper.BindPFlag("no_hash_check", cmd.Flags().Lookup("no-hash-check"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
}

func runInstall(ctx context.Context, cmd *cobra.Command, apps []string, opts installOptions) error {
	arch, err := targetArchitecture()
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.Install(ctx, app.InstallRequest{
		Apps:         apps,
		Architecture: arch,
		NoHashCheck:  resolveBool(cmd, opts.NoHashCheck, "no_hash_check", "no-hash-check"),
		Workers:      resolveInt(cmd, opts.Workers, "workers", "workers"),
	})
	printInstallResult(cmd.OutOrStdout(), result)
	return err
}

func newUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <app>",
		Aliases: []string{"un", "rm"},
		Short:   "Remove an installed app and its shims",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			result, err := service.Uninstall(cmd.Context(), app.UninstallRequest{Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s (%d versions)\n", result.Name, len(result.Versions))
			return nil
		},
	}
}

func newUpgradeCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:     "upgrade [app]...",
		Aliases: []string{"up"},
		Short:   "Upgrade installed apps to the latest bucket version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd.Context(), cmd, args, opts)
		},
	}
	bindInstallFlags(cmd, &opts)
	return cmd
}

func runUpgrade(ctx context.Context, cmd *cobra.Command, apps []string, opts installOptions) error {
	arch, err := targetArchitecture()
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.Upgrade(ctx, app.UpgradeRequest{
		Apps:         apps,
		Architecture: arch,
		NoHashCheck:  resolveBool(cmd, opts.NoHashCheck, "no_hash_check", "no-hash-check"),
		Workers:      resolveInt(cmd, opts.Workers, "workers", "workers"),
	})
	printUpgrade(cmd.OutOrStdout(), result)
	return err
}

func newSearchCommand() *cobra.Command {
	opts := searchOptions{}
	cmd := &cobra.Command{
		Use:     "search [query]",
		Aliases: []string{"s"},
		Short:   "Search bucket apps by name",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			service := newAppService()
			result, err := service.Search(cmd.Context(), app.SearchRequest{
				Query: query,
				Fuzzy: resolveBool(cmd, opts.Fuzzy, "fuzzy", "fuzzy"),
			})
			if err != nil {
				return err
			}
			printSearch(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Fuzzy, "fuzzy", false, "Match names fuzzily instead of by substring")
	_ = viper.BindPFlag("fuzzy", cmd.Flags().Lookup("fuzzy"))
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed apps",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := newAppService()
			result, err := service.List(cmd.Context())
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve <app>...",
		Short: "Print the dependency-ordered install plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the plan as YAML to a file, or - for stdout")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, apps []string, opts resolveOptions) error {
	arch, err := targetArchitecture()
	if err != nil {
		return err
	}
	output := resolveString(cmd, opts.Output, "output", "output")
	service := newAppService()
	service.PlanWriter = adapters.NewPlanFileAdapter(cmd.OutOrStdout())
	result, err := service.Resolve(ctx, app.ResolveRequest{
		Apps:         apps,
		Architecture: arch,
		Output:       output,
	})
	if err != nil {
		return err
	}
	if output == "" {
		printPlan(cmd.OutOrStdout(), result.File)
	}
	return nil
}
