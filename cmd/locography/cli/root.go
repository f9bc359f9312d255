// Package cli implements the locography command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erazemk/locography/internal/config"
)

// VersionInfo identifies the build.
type VersionInfo struct {
	Version string
	Commit  string
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (%s)", v.Version, v.Commit)
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "locography",
		Short:         "Personal inventory with photo search",
		Long:          "Locography catalogs the things you own, where they are kept and what they look like, and finds them again by text or by photo.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(viper.GetViper(), path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("db", "", "sqlite database path (overrides database.path)")

	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "database.path", "db")

	cmd.Version = info.String()

	return cmd
}

func NewVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "locography %s\n", info)
		},
	}
}

// bindFlag binds the named flag of cmd to a viper key. The only failure is a
// missing flag, which is a programming error.
func bindFlag(cmd *cobra.Command, key, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %q to %s: %v", name, key, err))
	}
}
