// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultLibraryDir       = "~/.artistmusic"
	defaultVolume           = 1.0
	defaultProgressInterval = 250 * time.Millisecond
	defaultSeekStep         = 10 * time.Second
	defaultArtworkMaxSize   = 1200
)

// Config структура для хранения конфигурации приложения
type Config struct {
	LibraryDir       string        `yaml:"library_dir"`
	DropDir          string        `yaml:"drop_dir"`
	Volume           *float64      `yaml:"volume"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	SeekStep         time.Duration `yaml:"seek_step"`
	ArtworkMaxSize   int           `yaml:"artwork_max_size"`
	Logging          LogConfig     `yaml:"logging"`
}

// LogConfig описывает настройки журналирования
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	Output     string `yaml:"output"` // file, console, both, none
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Если файла нет, возвращается конфигурация по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := expandHome(filePath, home)

	config := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Работаем с настройками по умолчанию
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
		}
	}

	config.applyDefaults(home)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default возвращает конфигурацию по умолчанию с библиотекой в указанном каталоге
func Default(libraryDir string) *Config {
	config := &Config{LibraryDir: libraryDir}
	home, _ := os.UserHomeDir()
	config.applyDefaults(home)
	return config
}

func (c *Config) applyDefaults(home string) {
	if c.LibraryDir == "" {
		c.LibraryDir = defaultLibraryDir
	}
	c.LibraryDir = expandHome(c.LibraryDir, home)

	if c.DropDir == "" {
		c.DropDir = filepath.Join(c.LibraryDir, "Drop")
	}
	c.DropDir = expandHome(c.DropDir, home)

	if c.Volume == nil {
		v := defaultVolume
		c.Volume = &v
	}
	if c.ProgressInterval == 0 {
		c.ProgressInterval = defaultProgressInterval
	}
	if c.SeekStep == 0 {
		c.SeekStep = defaultSeekStep
	}
	if c.ArtworkMaxSize == 0 {
		c.ArtworkMaxSize = defaultArtworkMaxSize
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "file"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.LibraryDir, "logs", "artistmusic.log")
	}
	c.Logging.FilePath = expandHome(c.Logging.FilePath, home)
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 30
	}
}

// Validate проверяет допустимость значений конфигурации
func (c *Config) Validate() error {
	if c.Volume != nil && (*c.Volume < 0 || *c.Volume > 1) {
		return fmt.Errorf("громкость должна быть в диапазоне [0, 1], получено %v", *c.Volume)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval не может быть отрицательным: %v", c.ProgressInterval)
	}
	if c.SeekStep < 0 {
		return fmt.Errorf("seek_step не может быть отрицательным: %v", c.SeekStep)
	}
	if c.ArtworkMaxSize < 0 {
		return fmt.Errorf("artwork_max_size не может быть отрицательным: %d", c.ArtworkMaxSize)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("неизвестный уровень журналирования: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("неизвестный формат журнала: %s", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "", "file", "console", "both", "none":
	default:
		return fmt.Errorf("неизвестный вывод журнала: %s", c.Logging.Output)
	}
	return nil
}

// VolumeLevel возвращает громкость по умолчанию
func (c *Config) VolumeLevel() float64 {
	if c.Volume == nil {
		return defaultVolume
	}
	return *c.Volume
}

func expandHome(path, home string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}
