// Package config gathers the settings of the axilite commands. Settings are
// layered: defaults, then environment variables (a .env file included), then
// an address-map file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/interconnect"
)

// Environment variables.
const (
	EnvAddrWidth = "AXILITE_ADDR_WIDTH"
	EnvDataWidth = "AXILITE_DATA_WIDTH"
	EnvOutDir    = "AXILITE_OUT_DIR"
	EnvLogLevel  = "AXILITE_LOG_LEVEL"
)

// ErrInvalid is returned for settings that cannot be used.
var ErrInvalid = errors.New("invalid settings")

// Settings is the merged configuration.
type Settings struct {
	Topology  string
	AddrWidth int
	DataWidth int
	OutDir    string
	LogLevel  string

	// Windows, when not empty, is the address map. Otherwise every slave
	// gets the default window.
	Windows []Window
}

// Window is the address window of one slave.
type Window struct {
	Name string `yaml:"name"`
	Low  uint64 `yaml:"low"`
	High uint64 `yaml:"high"`
}

// File is the layout of an address-map file.
type File struct {
	Topology  string   `yaml:"topology"`
	AddrWidth int      `yaml:"addr_width"`
	DataWidth int      `yaml:"data_width"`
	Slaves    []Window `yaml:"slaves"`
}

// Overrides are explicit settings, such as command-line flags. Empty
// strings and zero widths are not set.
type Overrides struct {
	Topology  string
	AddrWidth int
	DataWidth int
	OutDir    string
	LogLevel  string
}

// Options tells Load where to look.
type Options struct {
	// EnvFiles are dotenv files. Missing files are skipped.
	EnvFiles []string

	// MapFile is an optional address-map file.
	MapFile string

	Overrides Overrides
}

// Defaults returns the settings used when nothing else is given.
func Defaults() Settings {
	return Settings{
		Topology:  "m1s1",
		AddrWidth: interconnect.DefaultAddrWidth,
		DataWidth: interconnect.DefaultDataWidth,
		OutDir:    ".",
		LogLevel:  "info",
	}
}

// Load merges the defaults, the environment, the map file and the
// overrides.
func Load(opts Options) (Settings, error) {
	s := Defaults()

	env, err := readEnv(opts.EnvFiles)
	if err != nil {
		return s, err
	}

	if err := s.applyEnv(env); err != nil {
		return s, err
	}

	if opts.MapFile != "" {
		f, err := ReadFile(opts.MapFile)
		if err != nil {
			return s, err
		}

		s.applyFile(f)
	}

	s.applyOverrides(opts.Overrides)

	log.WithFields(log.Fields{
		"topology":   s.Topology,
		"addr_width": s.AddrWidth,
		"data_width": s.DataWidth,
		"windows":    len(s.Windows),
	}).Debug("settings loaded")

	return s, nil
}

// readEnv reads the dotenv files. Variables of the process take
// precedence over the files.
func readEnv(files []string) (map[string]string, error) {
	env := make(map[string]string)

	for _, f := range files {
		values, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, f, err)
		}

		for k, v := range values {
			if _, found := env[k]; !found {
				env[k] = v
			}
		}
	}

	for _, k := range []string{EnvAddrWidth, EnvDataWidth, EnvOutDir, EnvLogLevel} {
		if v, found := os.LookupEnv(k); found {
			env[k] = v
		}
	}

	return env, nil
}

func (s *Settings) applyEnv(env map[string]string) error {
	width := func(key string, dst *int) error {
		v, found := env[key]
		if !found || v == "" {
			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v)
		}

		*dst = n

		return nil
	}

	if err := width(EnvAddrWidth, &s.AddrWidth); err != nil {
		return err
	}

	if err := width(EnvDataWidth, &s.DataWidth); err != nil {
		return err
	}

	if v := env[EnvOutDir]; v != "" {
		s.OutDir = v
	}

	if v := env[EnvLogLevel]; v != "" {
		s.LogLevel = v
	}

	return nil
}

// ReadFile parses an address-map file.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	f := File{}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	return f, nil
}

func (s *Settings) applyFile(f File) {
	if f.Topology != "" {
		s.Topology = f.Topology
	}

	if f.AddrWidth != 0 {
		s.AddrWidth = f.AddrWidth
	}

	if f.DataWidth != 0 {
		s.DataWidth = f.DataWidth
	}

	if len(f.Slaves) > 0 {
		s.Windows = append([]Window(nil), f.Slaves...)
	}
}

func (s *Settings) applyOverrides(o Overrides) {
	if o.Topology != "" {
		s.Topology = o.Topology
	}

	if o.AddrWidth != 0 {
		s.AddrWidth = o.AddrWidth
	}

	if o.DataWidth != 0 {
		s.DataWidth = o.DataWidth
	}

	if o.OutDir != "" {
		s.OutDir = o.OutDir
	}

	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
}

// Interconnect turns the settings into a validated interconnect
// configuration.
func (s Settings) Interconnect() (interconnect.Config, error) {
	masters, slaves, err := interconnect.ParseTopology(s.Topology)
	if err != nil {
		return interconnect.Config{}, err
	}

	cfg := interconnect.Config{
		Masters:   masters,
		Slaves:    slaves,
		AddrWidth: s.AddrWidth,
		DataWidth: s.DataWidth,
	}

	if len(s.Windows) > 0 {
		if len(s.Windows) != slaves {
			return interconnect.Config{}, fmt.Errorf(
				"%w: topology %s has %d slaves, the map lists %d",
				addrmap.ErrSlaveCount, s.Topology, slaves, len(s.Windows))
		}

		ranges := make([]addrmap.Range, len(s.Windows))
		for j, w := range s.Windows {
			ranges[j] = addrmap.Range{Low: w.Low, High: w.High}
		}

		amap, err := addrmap.New(s.AddrWidth, ranges...)
		if err != nil {
			return interconnect.Config{}, err
		}

		cfg.AddressMap = amap
	}

	if _, err := cfg.Validate(); err != nil {
		return interconnect.Config{}, err
	}

	return cfg, nil
}

// SlaveName returns the name of slave j from the map file, or "slave{j}".
func (s Settings) SlaveName(j int) string {
	if j < len(s.Windows) && s.Windows[j].Name != "" {
		return s.Windows[j].Name
	}

	return fmt.Sprintf("slave%d", j)
}

// Level parses the log level.
func (s Settings) Level() (log.Level, error) {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return level, nil
}
