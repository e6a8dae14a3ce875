// Package config loads the settings shared by verifyctl and portalhost.
//
// Values are layered by viper: bound flags, then VERIFYCTL_* environment
// variables (an optional .env file is loaded into the environment first),
// then the YAML config file, then the defaults below.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VERIFYCTL_SERVER.
const EnvPrefix = "VERIFYCTL"

// Keys understood by Load.
const (
	KeyServer    = "server"
	KeyTimeout   = "timeout"
	KeyLogLevel  = "log_level"
	KeyLogFile   = "log_file"
	KeyStaticDir = "static_dir"
	KeyListen    = "listen"
)

// Settings holds the resolved configuration.
type Settings struct {
	ServerURL string
	Timeout   time.Duration
	LogLevel  string
	// LogFile is empty for stderr.
	LogFile   string
	StaticDir string
	Listen    string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServer, "http://localhost:8080")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyStaticDir, "")
	v.SetDefault(KeyListen, ":8081")
}

// Load resolves Settings from v. An explicit cfgFile must exist; otherwise
// $HOME/.verifyctl.yaml is read when present.
func Load(v *viper.Viper, cfgFile string) (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".verifyctl")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Settings{
		ServerURL: strings.TrimRight(v.GetString(KeyServer), "/"),
		Timeout:   v.GetDuration(KeyTimeout),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFile:   v.GetString(KeyLogFile),
		StaticDir: v.GetString(KeyStaticDir),
		Listen:    v.GetString(KeyListen),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings no command can run with.
func (s Settings) Validate() error {
	if s.ServerURL == "" {
		return errors.New("config: server url is empty")
	}
	if !strings.HasPrefix(s.ServerURL, "http://") && !strings.HasPrefix(s.ServerURL, "https://") {
		return fmt.Errorf("config: server url %q must be http or https", s.ServerURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", s.Timeout)
	}
	return nil
}
