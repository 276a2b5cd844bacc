package config

import (
	"path/filepath"

	"github.com/paularlott/cli"
)

const DefaultListenAddr = ":8013"

type Config struct {
	DataDir          string
	ListenAddr       string
	APIAuthToken     string
	MCPAuthToken     string
	ConfigFile       string
	PrinterConfig    string
	LogLevel         string
	LogFormat        string
	DefaultLabelSize string
	NoDiscovery      bool
	File             *FileConfig
}

var (
	dataDir          string
	listenAddr       string
	apiAuthToken     string
	mcpAuthToken     string
	configFile       string
	printerConfig    string
	logLevel         string
	logFormat        string
	defaultLabelSize string
	noDiscovery      bool
)

func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Data directory path",
			EnvVars:      []string{"LABELD_DATA_DIR"},
			DefaultValue: filepath.Join(".", "data"),
			AssignTo:     &dataDir,
		},
		&cli.StringFlag{
			Name:         "addr",
			Usage:        "Server listen address",
			EnvVars:      []string{"LABELD_LISTEN_ADDR"},
			DefaultValue: DefaultListenAddr,
			AssignTo:     &listenAddr,
		},
		&cli.StringFlag{
			Name:     "api-token",
			Usage:    "API bearer token",
			EnvVars:  []string{"LABELD_API_TOKEN"},
			AssignTo: &apiAuthToken,
		},
		&cli.StringFlag{
			Name:     "mcp-token",
			Usage:    "MCP bearer token",
			EnvVars:  []string{"LABELD_MCP_TOKEN"},
			AssignTo: &mcpAuthToken,
		},
		&cli.StringFlag{
			Name:     "config",
			Usage:    "YAML configuration file",
			EnvVars:  []string{"LABELD_CONFIG"},
			AssignTo: &configFile,
		},
		&cli.StringFlag{
			Name:     "printer-config",
			Usage:    "Printer configuration file (default <data-dir>/printer_configs.json)",
			EnvVars:  []string{"LABELD_PRINTER_CONFIG"},
			AssignTo: &printerConfig,
		},
		&cli.StringFlag{
			Name:         "log-level",
			Usage:        "Log level (debug, info, warn, error)",
			EnvVars:      []string{"LABELD_LOG_LEVEL"},
			DefaultValue: "info",
			AssignTo:     &logLevel,
		},
		&cli.StringFlag{
			Name:         "log-format",
			Usage:        "Log format (console, json)",
			EnvVars:      []string{"LABELD_LOG_FORMAT"},
			DefaultValue: "console",
			AssignTo:     &logFormat,
		},
		&cli.StringFlag{
			Name:         "default-label-size",
			Usage:        "Label size assigned to newly seen printers",
			EnvVars:      []string{"LABELD_DEFAULT_LABEL_SIZE"},
			DefaultValue: "62",
			AssignTo:     &defaultLabelSize,
		},
		&cli.BoolFlag{
			Name:     "no-discovery",
			Usage:    "Disable mDNS printer discovery (manual printers only)",
			EnvVars:  []string{"LABELD_NO_DISCOVERY"},
			AssignTo: &noDiscovery,
		},
	}
}

// Load returns the parsed flags merged with the optional YAML file
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:          dataDir,
		ListenAddr:       listenAddr,
		APIAuthToken:     apiAuthToken,
		MCPAuthToken:     mcpAuthToken,
		ConfigFile:       configFile,
		PrinterConfig:    printerConfig,
		LogLevel:         logLevel,
		LogFormat:        logFormat,
		DefaultLabelSize: defaultLabelSize,
		NoDiscovery:      noDiscovery,
	}
	return cfg, cfg.finish()
}

func (c *Config) finish() error {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(".", "data")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DefaultLabelSize == "" {
		c.DefaultLabelSize = "62"
	}
	if c.PrinterConfig == "" {
		c.PrinterConfig = filepath.Join(c.DataDir, "printer_configs.json")
	}

	file, err := LoadFile(c.ConfigFile)
	if err != nil {
		return err
	}
	c.File = file
	return nil
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}

// IsMCPEnabled checks if MCP authentication is configured
func (c *Config) IsMCPEnabled() bool {
	return c.MCPAuthToken != ""
}
