package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const DefaultFileName = "config.yaml"

// Config captures the user-adjustable knobs for guide recording.
type Config struct {
	Paths    PathsConfig
	Capture  CaptureConfig
	Describe DescribeConfig
	Serve    ServeConfig
	Logging  LoggingConfig

	// Source indicates where the configuration originated (defaults or a file path).
	Source string
}

// PathsConfig controls filesystem locations used by the CLI.
type PathsConfig struct {
	GuidesDir string
}

// CaptureConfig toggles capture subsystems.
type CaptureConfig struct {
	ShortcutsEnabled      bool
	DoubleClickIntervalMS int
	ScreenshotFormat      string
	QueueSize             int
}

// DescribeConfig selects the step description backend.
type DescribeConfig struct {
	Provider string
	Model    string
}

// ServeConfig configures the local control server.
type ServeConfig struct {
	Addr string
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			GuidesDir: "guides",
		},
		Capture: CaptureConfig{
			ShortcutsEnabled:      true,
			DoubleClickIntervalMS: 500,
			ScreenshotFormat:      "png",
			QueueSize:             64,
		},
		Describe: DescribeConfig{
			Provider: "heuristic",
			Model:    "",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8750",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./config.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	file, err := os.Open(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config file %q: %w", candidate, err)
	}
	defer file.Close()

	if err := decodeYAML(file, &cfg); err != nil {
		return cfg, err
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.GuidesDir) == "" {
		return errors.New("paths.guides_dir must not be empty")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	if c.Capture.DoubleClickIntervalMS <= 0 {
		return errors.New("capture.double_click_interval_ms must be positive")
	}
	if c.Capture.QueueSize <= 0 {
		return errors.New("capture.queue_size must be positive")
	}
	switch c.Capture.ScreenshotFormat {
	case "png":
	default:
		return fmt.Errorf("unsupported capture.screenshot_format %q", c.Capture.ScreenshotFormat)
	}

	if _, err := NormalizeDescribeProvider(c.Describe.Provider); err != nil {
		return err
	}

	if strings.TrimSpace(c.Serve.Addr) == "" {
		return errors.New("serve.addr must not be empty")
	}

	return nil
}

// decodeYAML ingests a small subset of YAML to avoid external dependencies.
type yamlFrame struct {
	indent int
	key    string
}

func decodeYAML(r io.Reader, cfg *Config) error {
	scanner := bufio.NewScanner(r)
	var stack []yamlFrame

	lineNo := 0
	for scanner.Scan() {
		raw := scanner.Text()
		lineNo++

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := countIndent(raw)
		if indent%2 != 0 {
			return fmt.Errorf("line %d: indentation must be multiples of two spaces", lineNo)
		}

		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}

		key, value, hasValue := splitKeyValue(trimmed)
		if !hasValue {
			stack = append(stack, yamlFrame{indent: indent, key: key})
			continue
		}

		if err := applyValue(cfg, stack, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	return nil
}

func countIndent(line string) int {
	count := 0
	for _, r := range line {
		if r != ' ' {
			break
		}
		count++
	}
	return count
}

func splitKeyValue(line string) (string, string, bool) {
	parts := strings.SplitN(line, ":", 2)
	key := strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return key, "", false
	}
	value := strings.TrimSpace(parts[1])
	if value == "" {
		return key, "", false
	}
	return key, value, true
}

func applyValue(cfg *Config, stack []yamlFrame, key, rawValue string) error {
	value := sanitizeValue(rawValue)
	path := make([]string, 0, len(stack)+1)
	for _, fr := range stack {
		path = append(path, fr.key)
	}
	path = append(path, key)

	switch strings.Join(path, ".") {
	case "paths.guides_dir":
		cfg.Paths.GuidesDir = value
	case "capture.shortcuts_enabled":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("capture.shortcuts_enabled: %w", err)
		}
		cfg.Capture.ShortcutsEnabled = b
	case "capture.double_click_interval_ms":
		ms, err := parseInt(value)
		if err != nil {
			return fmt.Errorf("capture.double_click_interval_ms: %w", err)
		}
		cfg.Capture.DoubleClickIntervalMS = ms
	case "capture.screenshot_format":
		cfg.Capture.ScreenshotFormat = strings.ToLower(value)
	case "capture.queue_size":
		size, err := parseInt(value)
		if err != nil {
			return fmt.Errorf("capture.queue_size: %w", err)
		}
		cfg.Capture.QueueSize = size
	case "describe.provider":
		cfg.Describe.Provider = strings.ToLower(value)
	case "describe.model":
		cfg.Describe.Model = value
	case "serve.addr":
		cfg.Serve.Addr = value
	case "logging.level":
		cfg.Logging.Level = strings.ToLower(value)
	case "logging.format":
		cfg.Logging.Format = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown key %q", strings.Join(path, "."))
	}

	return nil
}

func sanitizeValue(raw string) string {
	value := raw
	if idx := strings.Index(value, " #"); idx >= 0 {
		value = value[:idx]
	}
	if idx := strings.Index(value, "\t#"); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimSpace(value)
	value = strings.Trim(value, "'\"")
	return value
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", value)
	}
}

func parseInt(value string) (int, error) {
	var i int
	_, err := fmt.Sscanf(value, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value %q", value)
	}
	return i, nil
}

func (c *Config) normalize() {
	c.Paths.GuidesDir = filepath.Clean(strings.TrimSpace(c.Paths.GuidesDir))

	defaults := Default()

	if c.Paths.GuidesDir == "." || c.Paths.GuidesDir == "" {
		c.Paths.GuidesDir = defaults.Paths.GuidesDir
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}

	if c.Capture.DoubleClickIntervalMS <= 0 {
		c.Capture.DoubleClickIntervalMS = defaults.Capture.DoubleClickIntervalMS
	}
	if strings.TrimSpace(c.Capture.ScreenshotFormat) == "" {
		c.Capture.ScreenshotFormat = defaults.Capture.ScreenshotFormat
	}
	if c.Capture.QueueSize <= 0 {
		c.Capture.QueueSize = defaults.Capture.QueueSize
	}
	if strings.TrimSpace(c.Describe.Provider) == "" {
		c.Describe.Provider = defaults.Describe.Provider
	}
	if strings.TrimSpace(c.Serve.Addr) == "" {
		c.Serve.Addr = defaults.Serve.Addr
	}
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

// NormalizeDescribeProvider validates description backend identifiers.
func NormalizeDescribeProvider(provider string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "heuristic":
		return "heuristic", nil
	case "anthropic":
		return "anthropic", nil
	case "openai":
		return "openai", nil
	default:
		return "", fmt.Errorf("unsupported describe provider %q", provider)
	}
}
