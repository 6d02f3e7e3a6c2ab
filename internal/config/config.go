// Package config loads routeaudit settings from a config file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/routeaudit/internal/audit"
)

// FileName is the config file name looked up in the audited root and $HOME.
const FileName = ".routeaudit"

const defaultMaxFileSize = 1_000_000 // 1 MB

type Config struct {
	Languages    []string
	ScanSuffixes []string
	SkipDirs     []string
	Gitignore    bool
	MaxFileSize  int64
	Style        string
	LogLevel     string

	// File is the config file that was read, "" if none.
	File string
}

// Options converts the config into audit options.
func (c Config) Options() audit.Options {
	return audit.Options{
		Languages:    c.Languages,
		ScanSuffixes: c.ScanSuffixes,
		SkipDirs:     c.SkipDirs,
		Gitignore:    c.Gitignore,
		MaxFileSize:  c.MaxFileSize,
	}
}

// New returns a viper instance with defaults, environment binding and the
// flag bindings for flags that exist in fs.
func New(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetDefault("languages", []string{})
	v.SetDefault("scan_extensions", audit.DefaultScanSuffixes)
	v.SetDefault("skip_dirs", []string{})
	v.SetDefault("gitignore", true)
	v.SetDefault("no_gitignore", false)
	v.SetDefault("max_file_size", defaultMaxFileSize)
	v.SetDefault("style", "markdown")
	v.SetDefault("loglevel", "info")

	v.SetEnvPrefix("ROUTEAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		bind := map[string]string{
			"languages":     "langs",
			"max_file_size": "max-file-size",
			"style":         "style",
			"loglevel":      "loglevel",
			"no_gitignore":  "no-gitignore",
		}
		for key, name := range bind {
			if f := fs.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}
	return v
}

// Load reads an explicit config file, or .routeaudit.{yaml,...} from root
// then $HOME. A missing config file is not an error.
func Load(v *viper.Viper, explicit, root string) (Config, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(root)
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Config{
		Languages:    splitList(v.GetStringSlice("languages")),
		ScanSuffixes: normalizeSuffixes(v.GetStringSlice("scan_extensions")),
		Gitignore:    v.GetBool("gitignore") && !v.GetBool("no_gitignore"),
		MaxFileSize:  v.GetInt64("max_file_size"),
		Style:        v.GetString("style"),
		LogLevel:     v.GetString("loglevel"),
		File:         v.ConfigFileUsed(),
	}
	if skip := splitList(v.GetStringSlice("skip_dirs")); len(skip) > 0 {
		cfg.SkipDirs = skip
	}
	if cfg.MaxFileSize < 0 {
		cfg.MaxFileSize = 0
	}
	return cfg, nil
}

// splitList flattens entries that themselves hold comma-separated values,
// as produced by flags and environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeSuffixes(in []string) []string {
	list := splitList(in)
	for i, s := range list {
		if !strings.HasPrefix(s, ".") && filepath.Ext(s) == "" {
			list[i] = "." + s
		}
	}
	return list
}
