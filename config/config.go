package config

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	EnvVarPrefix = "GZIDX"

	DefaultWindowSize  = 32768
	DefaultSpacing     = 1 << 20 // 1 MiB
	DefaultIndexSuffix = ".zidx"

	MinWindowSize = 512
	MaxSpacing    = 1 << 30
)

var (
	// VERSION gets set during build
	VERSION = "0.0.0"

	validStreamTypes = map[string]struct{}{
		"deflate": {},
		"gzip":    {},
		"zlib":    {},
		"auto":    {},
	}

	validSpacingUnits = map[string]struct{}{
		"compressed":   {},
		"uncompressed": {},
	}
)

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Config *TOMLConfig `toml:"config"`
	Index  *TOMLIndex  `toml:"index"`
}

type TOMLConfig struct {
	LogLevel        string `toml:"log_level"`
	ChecksumMode    string `toml:"checksum_mode"`
	DisableChecksum bool   `toml:"disable_checksum"`
}

type TOMLIndex struct {
	SourceFile  string `toml:"source_file"`
	IndexFile   string `toml:"index_file"`
	StreamType  string `toml:"stream_type"`
	WindowSize  int    `toml:"window_size"`
	Spacing     int64  `toml:"spacing"`
	SpacingUnit string `toml:"spacing_unit"`
}

type CLI struct {
	ConfigFile string `kong:"help='Path to the TOML config file',type='path',default='gzidx.toml',short='c'"`
	Source     string `kong:"help='Path to the compressed source file',short='s'"`
	Output     string `kong:"help='Path to write the generated index file',short='o'"`
	Seek       int64  `kong:"help='Uncompressed offset to seek to after loading the index',short='k',default='-1'"`
	Build      bool   `kong:"help='Build a new index instead of loading one',short='b'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Disable showing pre/post output',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	Ctx *kong.Context `kong:"-"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs()
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig, err := readTOML(cli.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	return &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}, nil
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Config == nil {
		t.Config = &TOMLConfig{}
	}
	if t.Index == nil {
		t.Index = &TOMLIndex{}
	}

	if t.Index.WindowSize == 0 {
		t.Index.WindowSize = DefaultWindowSize
	}
	if t.Index.Spacing == 0 {
		t.Index.Spacing = DefaultSpacing
	}
	if t.Index.SpacingUnit == "" {
		t.Index.SpacingUnit = "uncompressed"
	}
	if t.Index.StreamType == "" {
		t.Index.StreamType = "auto"
	}
	if t.Index.IndexFile == "" && t.Index.SourceFile != "" {
		t.Index.IndexFile = t.Index.SourceFile + DefaultIndexSuffix
	}

	return nil
}

func Validate(c *Config) error {
	if err := validateCLIArgs(c.CLI); err != nil {
		return errors.Wrap(err, "error validating CLI args")
	}
	if err := validateTOML(c.TOML); err != nil {
		return errors.Wrap(err, "error validating toml config")
	}
	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}
	if err := validateTOMLConfig(t.Config); err != nil {
		return errors.Wrap(err, "config error(s)")
	}
	if err := validateTOMLIndex(t.Index); err != nil {
		return errors.Wrap(err, "error validating toml [index]")
	}
	return nil
}

func validateTOMLConfig(c *TOMLConfig) error {
	if c == nil {
		return errors.New("config cannot be empty")
	}
	return nil
}

func validateTOMLIndex(idx *TOMLIndex) error {
	if idx == nil {
		return errors.New("index cannot be empty")
	}

	if idx.SourceFile == "" {
		return errors.New("index.source_file cannot be empty")
	}

	info, err := os.Stat(idx.SourceFile)
	if os.IsNotExist(err) {
		return errors.Errorf("index.source_file %s does not exist", idx.SourceFile)
	}
	if info != nil && info.IsDir() {
		return errors.Errorf("index.source_file %s is a directory", idx.SourceFile)
	}

	if _, ok := validStreamTypes[idx.StreamType]; !ok {
		return errors.Errorf("index.stream_type %s is invalid", idx.StreamType)
	}

	if idx.WindowSize < MinWindowSize {
		return errors.Errorf("index.window_size must be at least %d", MinWindowSize)
	}

	if idx.Spacing <= 0 || idx.Spacing > MaxSpacing {
		return errors.Errorf("index.spacing must be between 1 and %d", MaxSpacing)
	}

	if _, ok := validSpacingUnits[idx.SpacingUnit]; !ok {
		return errors.Errorf("index.spacing_unit %s is invalid", idx.SpacingUnit)
	}

	return nil
}

func readCLIArgs() (*CLI, error) {
	cli := &CLI{}
	cli.Ctx = kong.Parse(cli,
		kong.Name("gzidx"),
		kong.Description("Random-access index builder/reader for gzip/zlib/deflate streams"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

func readTOML(file string) (*TOML, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			tomlConfig := &TOML{}
			if err := setTOMLDefaults(tomlConfig); err != nil {
				return nil, err
			}
			return tomlConfig, nil
		}
		return nil, errors.Wrap(err, "error reading file")
	}

	tomlConfig := &TOML{}
	if err := toml.Unmarshal(data, tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error parsing TOML config")
	}

	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	return tomlConfig, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}
	return nil
}
