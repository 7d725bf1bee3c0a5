package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/axilite/hdl"
	"github.com/sarchlab/axilite/interconnect"
	"github.com/sarchlab/axilite/verilog"
	"github.com/sarchlab/axilite/wrapper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the Verilog of the interconnect and its wrapper.",
	Long: `Generate writes axi4_lite_interconnect_m{M}s{S}.v and, unless ` +
		`--no-wrapper is given, wrapper_axi4_lite_interconnect_m{M}s{S}.v into ` +
		`the output directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		files, err := generate(cfg, settings.OutDir, !getBool(cmd, "no-wrapper"))
		if err != nil {
			return err
		}

		for _, f := range files {
			fmt.Println(f)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Bool("no-wrapper", false, "do not write the wrapper")
}

// generate writes the modules of cfg into dir and returns the file paths.
func generate(cfg interconnect.Config, dir string, withWrapper bool) ([]string, error) {
	modules := []func(interconnect.Config) (*hdl.Module, error){interconnect.Generate}
	if withWrapper {
		modules = append(modules, wrapper.Generate)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	files := []string{}

	for _, gen := range modules {
		m, err := gen(cfg)
		if err != nil {
			return files, err
		}

		path := filepath.Join(dir, verilog.FileName(m))
		if err := writeModule(path, m); err != nil {
			return files, err
		}

		log.WithFields(log.Fields{
			"module": m.Name,
			"file":   path,
		}).Info("module written")

		files = append(files, path)
	}

	return files, nil
}

func writeModule(path string, m *hdl.Module) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := verilog.Render(f, m); err != nil {
		f.Close()
		os.Remove(path)

		return err
	}

	return f.Close()
}
