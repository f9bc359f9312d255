package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/locography/internal/config"
)

func NewConfigCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "config [path]",
		Short: "Write a commented default configuration",
		Long:  "Write a commented default configuration to path, or to stdout when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return config.WriteDefault(cmd.OutOrStdout())
			}

			path := args[0]
			flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
			if !force {
				flags |= os.O_EXCL
			}
			f, err := os.OpenFile(path, flags, 0o644)
			if os.IsExist(err) {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err != nil {
				return fmt.Errorf("creating config file: %w", err)
			}
			defer f.Close()

			if err := config.WriteDefault(f); err != nil {
				return fmt.Errorf("writing config file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return f.Close()
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}
