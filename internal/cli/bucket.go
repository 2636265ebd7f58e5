package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"scoop-go/internal/app"
)

func newBucketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Manage manifest buckets",
	}
	cmd.AddCommand(newBucketAddCommand())
	cmd.AddCommand(newBucketRemoveCommand())
	cmd.AddCommand(newBucketUpdateCommand())
	cmd.AddCommand(newBucketListCommand())
	return cmd
}

func newBucketAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Clone a bucket repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			summary, err := service.BucketAdd(cmd.Context(), app.BucketAddRequest{Name: args[0], URL: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added bucket %s (%d apps)\n", summary.Name, summary.Apps)
			return nil
		},
	}
}

func newBucketRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a bucket",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			if err := service.BucketRemove(cmd.Context(), app.BucketRemoveRequest{Name: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed bucket %s\n", args[0])
			return nil
		},
	}
}

func newBucketUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update [name]...",
		Short: "Pull the latest manifests for buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			result, err := service.BucketUpdate(cmd.Context(), app.BucketUpdateRequest{Names: args})
			for _, name := range result.Updated {
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", name)
			}
			for _, name := range result.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s (not a git checkout)\n", name)
			}
			return err
		},
	}
}

func newBucketListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List buckets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := newAppService()
			result, err := service.BucketList(cmd.Context())
			if err != nil {
				return err
			}
			printBuckets(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
