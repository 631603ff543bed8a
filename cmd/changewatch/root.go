package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"changewatch/internal/service/strategy"
)

func newRootCommand() *cobra.Command {
	flags := &overrides{}
	ctx := newCommandContext(flags)

	var noNotify bool
	var record bool

	rootCmd := &cobra.Command{
		Use:   "changewatch [dir]",
		Short: "Compare the two newest images in a directory and report significant change",
		Long: "Compares the two most recently modified .jpg/.jpeg/.png files in dir (default: the\n" +
			"configured upload directory) and reports whether their similarity fell below the\n" +
			"threshold. Insufficient input and unreadable images are reported and exit 0.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			dir := cfg.UploadDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runCompare(cmd, cfg, dir, compareOptions{notify: !noNotify, record: record})
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path (TOML)")
	persistent.StringVar(&flags.strategy, "strategy", "", fmt.Sprintf("Similarity strategy (%s)", strings.Join(strategy.Names(), ", ")))
	persistent.Float64Var(&flags.threshold, "threshold", 0, "Change threshold; 0 uses the strategy default")
	persistent.StringVar(&flags.serialPort, "serial-port", "", "Serial device of the indicator board")

	rootCmd.Flags().BoolVar(&noNotify, "no-notify", false, "Do not signal the verdict over serial")
	rootCmd.Flags().BoolVar(&record, "record", false, "Store the result in the comparison history")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
