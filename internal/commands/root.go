package commands

import (
	"github.com/spf13/cobra"

	"github.com/tricount-export/tricount-export/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
// The root command itself runs an export of the ledger named by its argument.
func NewRootCommand() *cobra.Command {
	var opts exportOptions

	rootCmd := &cobra.Command{
		Use:     "tricount-export <key-or-url>",
		Short:   "Export a Tricount ledger to TSV, CSV or XLSX",
		Version: buildinfo.Summary(),
		Args:    cobra.MaximumNArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.license {
				_, err := cmd.OutOrStdout().Write([]byte(LicenseNotice + "\n"))
				return err
			}
			if len(args) == 0 {
				_ = cmd.Usage()
				return errMissingKey
			}
			opts.changed = cmd.Flags().Changed
			return runExport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: built-in settings)")
	flags.BoolVar(&opts.raw, "raw", false, "also save the raw API response as JSON")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: csv, ledger, ssv, tsv, xlsx")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for output files")
	flags.BoolVar(&opts.attachments, "attachments", false, "download receipt attachments")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&opts.license, "license", false, "print the license notice and exit")

	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}
