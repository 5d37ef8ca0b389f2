package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Emeka-MSFT/runtime-sub000/colors"
	"github.com/Emeka-MSFT/runtime-sub000/internal/target"
	"github.com/Emeka-MSFT/runtime-sub000/internal/vn"
	"github.com/Emeka-MSFT/runtime-sub000/internal/vnscript"
)

const version = "0.1.0"

var (
	flagTarget string
	flagBudget int
	flagDebug  bool
	flagTree   bool
)

var rootCmd = &cobra.Command{
	Use:           "vnstore",
	Short:         "Value-numbering store driver",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval <script>",
	Short: "Evaluate a value-number script and print its bindings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		tgt, err := target.Parse(flagTarget)
		if err != nil {
			return err
		}

		logger := zap.NewNop()
		if flagDebug {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()
		}

		store := vn.NewStore(vn.Config{
			Target:       tgt,
			SelectBudget: flagBudget,
			Logger:       logger,
		})
		res, err := vnscript.Run(store, string(src))
		if err != nil {
			return err
		}

		for _, b := range res.Bindings {
			colors.CYAN.Printf("%-12s", b.Name)
			if flagTree {
				fmt.Printf(" = %s\n", store.Render(b.VN))
			} else {
				fmt.Printf(" = $%d (%s)\n", b.VN, store.TypeOf(b.VN))
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vnstore version %s\n", version)
	},
}

func init() {
	evalCmd.Flags().StringVar(&flagTarget, "target", "x64", "target architecture (x64, arm64)")
	evalCmd.Flags().IntVar(&flagBudget, "budget", 0, "map-select step budget (0 means the default)")
	evalCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug tracing")
	evalCmd.Flags().BoolVar(&flagTree, "tree", false, "render each binding as an expression tree")
	rootCmd.AddCommand(evalCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		colors.RED.Fprintln(os.Stderr, "vnstore:", err)
		os.Exit(1)
	}
}
