package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// resolveFlag gives an explicitly set flag precedence over the environment
// and config file, which in turn win over flag defaults. Without a command
// the non-zero value wins.
func resolveFlag[T comparable](cmd *cobra.Command, value T, key string, flagName string, lookup func(string) T) T {
	if cmd == nil {
		var zero T
		if value != zero {
			return value
		}
		return lookup(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return lookup(key)
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	return resolveFlag(cmd, value, key, flagName, viper.GetString)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	return resolveFlag(cmd, value, key, flagName, viper.GetBool)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	return resolveFlag(cmd, value, key, flagName, viper.GetInt)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	for _, flags := range []interface{ Changed(string) bool }{cmd.Flags(), cmd.PersistentFlags()} {
		if flags.Changed(name) {
			return true
		}
	}
	return false
}
