// Command fsttopsort topologically sorts an automaton.
//
//	fsttopsort [in.fst [out.fst]]
//
// An absent or "-" input reads standard input; an absent output writes
// standard output. A cyclic input is a warning, not an error: the
// automaton is written unchanged and the exit code is still 0. Only a
// failed read or write exits 1.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/unijord/gofst/pkg/fst"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "fsttopsort [in.fst [out.fst]]",
	Short:        "Topologically sorts an FST",
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			cfg, err := fst.LoadConfig(configPath)
			if err != nil {
				return err
			}
			fst.SetProcessConfig(cfg)
			slog.SetLogLoggerLevel(cfg.LogLevel())
		}

		var inName, outName string
		if len(args) > 0 && args[0] != "-" {
			inName = args[0]
		}
		if len(args) > 1 {
			outName = args[1]
		}

		ifst, err := fst.Read(inName)
		if err != nil {
			return err
		}

		ofst, acyclic, err := fst.TopSortFst(ifst)
		if err != nil {
			return err
		}
		if !acyclic {
			slog.Warn("[fsttopsort]",
				slog.String("message", "input FST is cyclic"),
				slog.String("source", inName))
		}
		return fst.Write(ofst, outName)
	},
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
