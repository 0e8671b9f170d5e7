package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/mosaic-wall/internal/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(config.WithConfigPath(path))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"configuration is valid: %dx%d grid, %d highlights, minimum %d cached images, source %q\n",
				cfg.Mosaic.Columns, cfg.Mosaic.Rows, cfg.Mosaic.NumberOfHighlights,
				cfg.Mosaic.MinimumNumberOfImagesInCacheCalculated(), cfg.Remote.Type)
			return nil
		},
	}
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}
