package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/axilite/config"
	"github.com/sarchlab/axilite/interconnect"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the address map of the interconnect.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		return printMap(os.Stdout, settings, cfg)
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
}

func printMap(w io.Writer, settings config.Settings, cfg interconnect.Config) error {
	amap, err := cfg.Map()
	if err != nil {
		return err
	}

	digits := (cfg.AddrWidth + 3) / 4

	fmt.Fprintf(w, "%s: %d-bit address, %d-bit data\n",
		interconnect.ModuleName(cfg.Masters, cfg.Slaves), cfg.AddrWidth, cfg.DataWidth)

	for j, r := range amap.Ranges() {
		fmt.Fprintf(w, "  %-3d %-12s 0x%0*X - 0x%0*X  (%d bytes)\n",
			j, settings.SlaveName(j), digits, r.Low, digits, r.High, r.Size())
	}

	return nil
}
