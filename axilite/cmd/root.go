// Package cmd provides the command-line interface of axilite.
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sarchlab/axilite/config"
	"github.com/sarchlab/axilite/interconnect"
)

// Version is set at link time. Without it the module version is reported.
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "axilite",
	Short: "axilite generates and simulates AXI4-Lite shared-bus interconnects.",
	Long: `axilite generates the Verilog of an M-master, S-slave AXI4-Lite ` +
		`shared-bus interconnect and its test wrapper, and simulates the ` +
		`interconnect against random or scripted traffic.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		if getBool(cmd, "version") {
			fmt.Println("axilite " + version())
			return
		}

		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report the version of this executable")

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "log at debug level")
	flags.String("log-level", "", "log level (panic, fatal, error, warn, info, debug, trace)")
	flags.StringSlice("env", []string{".env"}, "dotenv files to read settings from")
	flags.StringP("map", "m", "", "address-map file (YAML)")
	flags.StringP("topology", "t", "", "interconnect topology, e.g. m2s3")
	flags.Int("addr-width", 0, "address bus width in bits")
	flags.Int("data-width", 0, "data bus width in bits")
	flags.StringP("out", "o", "", "output directory")
}

func version() string {
	if Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}

	return "(unknown version)"
}

func setupLogging(cmd *cobra.Command) error {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   isTerminal,
		DisableColors: !isTerminal,
		FullTimestamp: !isTerminal,
	})

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	level, err := settings.Level()
	if err != nil {
		return err
	}

	if getBool(cmd, "verbose") {
		level = log.DebugLevel
	}

	log.SetLevel(level)

	return nil
}

// loadSettings merges the environment, the address-map file and the flags
// of cmd.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	envFiles, err := cmd.Flags().GetStringSlice("env")
	if err != nil {
		return config.Settings{}, err
	}

	return config.Load(config.Options{
		EnvFiles: envFiles,
		MapFile:  getString(cmd, "map"),
		Overrides: config.Overrides{
			Topology:  getString(cmd, "topology"),
			AddrWidth: getInt(cmd, "addr-width"),
			DataWidth: getInt(cmd, "data-width"),
			OutDir:    getString(cmd, "out"),
			LogLevel:  getString(cmd, "log-level"),
		},
	})
}

// loadConfig returns the settings together with the interconnect they
// describe.
func loadConfig(cmd *cobra.Command) (config.Settings, interconnect.Config, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return settings, interconnect.Config{}, err
	}

	cfg, err := settings.Interconnect()
	if err != nil {
		return settings, interconnect.Config{}, err
	}

	return settings, cfg, nil
}

func getBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		log.Panicf("flag %s: %v", name, err)
	}

	return v
}

func getString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		log.Panicf("flag %s: %v", name, err)
	}

	return v
}

func getInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		log.Panicf("flag %s: %v", name, err)
	}

	return v
}

func getUint64(cmd *cobra.Command, name string) uint64 {
	v, err := cmd.Flags().GetUint64(name)
	if err != nil {
		log.Panicf("flag %s: %v", name, err)
	}

	return v
}

func getInt64(cmd *cobra.Command, name string) int64 {
	v, err := cmd.Flags().GetInt64(name)
	if err != nil {
		log.Panicf("flag %s: %v", name, err)
	}

	return v
}
