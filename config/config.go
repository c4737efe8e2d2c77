package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Language string         `yaml:"language"`
	LogLevel string         `yaml:"log_level"`
	Script   ScriptConfig   `yaml:"script"`
	Audio    AudioConfig    `yaml:"audio"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Assemble AssembleConfig `yaml:"assemble"`
	Upload   UploadConfig   `yaml:"upload"`
	Paths    PathsConfig    `yaml:"paths"`
}

type ScriptConfig struct {
	SpeakingRateWPM int     `yaml:"speaking_rate_wpm"`
	MaxSegmentSec   float64 `yaml:"max_segment_sec"`
	PauseSec        float64 `yaml:"pause_sec"`
	Framing         bool    `yaml:"framing"` // intro/outro segments
}

type AudioConfig struct {
	TTSCommand string `yaml:"tts_command"` // external TTS binary/script
	Voice      string `yaml:"voice"`
	Format     string `yaml:"format"`
	PerSegment bool   `yaml:"per_segment"` // one TTS call per segment
	Workers    int    `yaml:"workers"`
}

type VisualsConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FPS             int     `yaml:"fps"`
	BackgroundColor string  `yaml:"background_color"`
	TextColor       string  `yaml:"text_color"`
	FontFile        string  `yaml:"font_file"`
	FontSize        int     `yaml:"font_size"`
	MinFontSize     int     `yaml:"min_font_size"`
	HeadingFontSize int     `yaml:"heading_font_size"`
	MaxCharsPerLine int     `yaml:"max_chars_per_line"`
	FadeFraction    float64 `yaml:"fade_fraction"`
	MarginPx        int     `yaml:"margin_px"`
	BackgroundsDir  string  `yaml:"backgrounds_dir"`
	BackgroundTags  string  `yaml:"background_tags"`
	Workers         int     `yaml:"workers"`
}

type AssembleConfig struct {
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	DefaultLanguage   string `yaml:"default_language"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
}

// PathsConfig names the subdirectories created under the run output dir.
type PathsConfig struct {
	Articles string `yaml:"articles"`
	Scripts  string `yaml:"scripts"`
	Videos   string `yaml:"videos"`
	Audio    string `yaml:"audio"`
	Final    string `yaml:"final"`
}

// Load reads the YAML config file and fills defaults for anything left
// unset. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Script.SpeakingRateWPM == 0 {
		c.Script.SpeakingRateWPM = 150
	}
	if c.Script.MaxSegmentSec == 0 {
		c.Script.MaxSegmentSec = 12
	}
	if c.Script.PauseSec == 0 {
		c.Script.PauseSec = 0.5
	}

	if c.Audio.Format == "" {
		c.Audio.Format = "mp3"
	}
	if c.Audio.Workers == 0 {
		c.Audio.Workers = 1
	}
	if c.Audio.TTSCommand == "" {
		c.Audio.TTSCommand = os.Getenv("TTS_COMMAND")
	}

	if c.Visuals.Width == 0 {
		c.Visuals.Width = 1080
	}
	if c.Visuals.Height == 0 {
		c.Visuals.Height = 1920
	}
	if c.Visuals.FPS == 0 {
		c.Visuals.FPS = 30
	}
	if c.Visuals.BackgroundColor == "" {
		c.Visuals.BackgroundColor = "0x191970" // midnight blue
	}
	if c.Visuals.TextColor == "" {
		c.Visuals.TextColor = "white"
	}
	if c.Visuals.FontSize == 0 {
		c.Visuals.FontSize = 48
	}
	if c.Visuals.MinFontSize == 0 {
		c.Visuals.MinFontSize = 28
	}
	if c.Visuals.HeadingFontSize == 0 {
		c.Visuals.HeadingFontSize = 60
	}
	if c.Visuals.MaxCharsPerLine == 0 {
		c.Visuals.MaxCharsPerLine = 40
	}
	if c.Visuals.FadeFraction == 0 {
		c.Visuals.FadeFraction = 0.1
	}
	if c.Visuals.MarginPx == 0 {
		c.Visuals.MarginPx = 100
	}
	if c.Visuals.Workers == 0 {
		c.Visuals.Workers = 4
	}

	if c.Assemble.AudioCodec == "" {
		c.Assemble.AudioCodec = "aac"
	}
	if c.Assemble.AudioBitrate == "" {
		c.Assemble.AudioBitrate = "192k"
	}

	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "28" // Science & Technology
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = c.Language
	}

	if c.Paths.Articles == "" {
		c.Paths.Articles = "articles"
	}
	if c.Paths.Scripts == "" {
		c.Paths.Scripts = "scripts"
	}
	if c.Paths.Videos == "" {
		c.Paths.Videos = "videos"
	}
	if c.Paths.Audio == "" {
		c.Paths.Audio = "audio"
	}
	if c.Paths.Final == "" {
		c.Paths.Final = "final"
	}
}

func (c *Config) validate() error {
	if c.Script.SpeakingRateWPM < 0 {
		return fmt.Errorf("speaking_rate_wpm must be positive")
	}
	if c.Script.MaxSegmentSec < 0 {
		return fmt.Errorf("max_segment_sec must be positive")
	}
	if c.Visuals.MinFontSize > c.Visuals.FontSize {
		return fmt.Errorf("min_font_size (%d) exceeds font_size (%d)", c.Visuals.MinFontSize, c.Visuals.FontSize)
	}
	if c.Visuals.FadeFraction < 0 || c.Visuals.FadeFraction > 0.5 {
		return fmt.Errorf("fade_fraction must be within [0, 0.5]")
	}
	return nil
}
