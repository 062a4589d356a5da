package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/akeil/syfix/pkg/api"
)

const defaultNotebook = "notion"

// flags holds the command line options that override the configuration.
// Zero values mean "not set".
type flags struct {
	configFile  string
	baseURL     string
	token       string
	dataDir     string
	concurrency int64
	timeout     time.Duration
	rate        float64
	logLevel    string
}

type settings struct {
	baseURL     string
	token       string
	dataDir     string
	notebook    string
	concurrency int64
	timeout     time.Duration
	rate        float64
	logLevel    string
}

func (s settings) apiConfig() api.Config {
	return api.Config{
		BaseURL:           s.baseURL,
		Token:             s.token,
		Concurrency:       s.concurrency,
		Timeout:           s.timeout,
		RequestsPerSecond: s.rate,
	}
}

// loadSettings reads the configuration file and environment (SYFIX_*)
// and applies the command line flags on top.
func loadSettings(f flags) (settings, error) {
	v := viper.New()
	v.SetDefault("base_url", api.DefaultBaseURL)
	v.SetDefault("token", "")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("notebook", defaultNotebook)
	v.SetDefault("concurrency", api.DefaultConcurrency)
	v.SetDefault("timeout", api.DefaultTimeout)
	v.SetDefault("rate", 0.0)
	v.SetDefault("log_level", "warning")

	v.SetEnvPrefix("syfix")
	v.AutomaticEnv()

	if f.configFile != "" {
		v.SetConfigFile(f.configFile)
	} else {
		v.SetConfigName("syfix")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "syfix"))
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, err
		}
	}

	s := settings{
		baseURL:     v.GetString("base_url"),
		token:       v.GetString("token"),
		dataDir:     v.GetString("data_dir"),
		notebook:    v.GetString("notebook"),
		concurrency: v.GetInt64("concurrency"),
		timeout:     v.GetDuration("timeout"),
		rate:        v.GetFloat64("rate"),
		logLevel:    v.GetString("log_level"),
	}
	s.override(f)

	s.dataDir, err = homedir.Expand(s.dataDir)
	if err != nil {
		return settings{}, err
	}

	return s, nil
}

func (s *settings) override(f flags) {
	if f.baseURL != "" {
		s.baseURL = f.baseURL
	}
	if f.token != "" {
		s.token = f.token
	}
	if f.dataDir != "" {
		s.dataDir = f.dataDir
	}
	if f.concurrency > 0 {
		s.concurrency = f.concurrency
	}
	if f.timeout > 0 {
		s.timeout = f.timeout
	}
	if f.rate > 0 {
		s.rate = f.rate
	}
	if f.logLevel != "" {
		s.logLevel = f.logLevel
	}
}

func defaultDataDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join("SiYuan", "data")
	}
	return filepath.Join(home, "SiYuan", "data")
}
