// Command fstconvert converts an automaton from one encoding family to
// another.
//
//	fstconvert [in.fst [out.fst]]
//
// An absent or "-" input reads standard input; an absent output writes
// standard output. Exits 1 on any read, convert or write failure.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/unijord/gofst/pkg/fst"
)

var (
	fstType    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:          "fstconvert [in.fst [out.fst]]",
	Short:        "Converts an FST to another encoding",
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConfig(configPath); err != nil {
			return err
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

		ofst := ifst
		if ifst.FstType() != fstType {
			ofst, err = fst.Convert(ifst, fstType)
			if err != nil {
				return err
			}
		}
		return fst.Write(ofst, outName)
	},
}

func applyConfig(path string) error {
	if path == "" {
		return nil
	}
	cfg, err := fst.LoadConfig(path)
	if err != nil {
		return err
	}
	fst.SetProcessConfig(cfg)
	slog.SetLogLoggerLevel(cfg.LogLevel())
	return nil
}

func main() {
	rootCmd.Flags().StringVar(&fstType, "fst_type", fst.VectorFstType, "Output FST type")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
