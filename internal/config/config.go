package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/outlog/internal/logger"
	"github.com/harrison/outlog/internal/template"
)

// ChildEnv forces child process mode when set to a true value. `outlog run`
// sets it for the command it starts.
const ChildEnv = "OUTLOG_CHILD"

// MinAnimationInterval is the shortest accepted animation interval.
const MinAnimationInterval = 10 * time.Millisecond

// fileOptions is the on-disk shape of Options. The interval is kept as a
// string so "750ms" style values work.
type fileOptions struct {
	ChildProcess          bool   `yaml:"child_process"`
	MessageStructure      string `yaml:"message_structure"`
	OutputFile            string `yaml:"output_file"`
	ExitMessage           string `yaml:"exit_message"`
	AlwaysCutToWidth      bool   `yaml:"always_cut_to_width"`
	AnimationInterval     string `yaml:"animation_interval"`
	AnimationInOutputFile bool   `yaml:"animation_in_output_file"`
	PrintDebug            bool   `yaml:"print_debug"`
	PrintProgress         bool   `yaml:"print_progress"`
	LockOutputFile        bool   `yaml:"lock_output_file"`
	HistoryDB             string `yaml:"history_db"`
}

// Options represents outlog configuration options
type Options struct {
	// ChildProcess is set when another outlog process owns the terminal
	ChildProcess bool

	// MessageStructure is the message template
	MessageStructure string

	// OutputFile receives a plain copy of every line ("" disables it)
	OutputFile string

	// ExitMessage is printed and logged when the process ends
	ExitMessage string

	// AlwaysCutToWidth truncates every line to the terminal width
	AlwaysCutToWidth bool

	// AnimationInterval is the time between animation frames
	AnimationInterval time.Duration

	// AnimationInOutputFile writes animated lines with their frame
	AnimationInOutputFile bool

	// PrintDebug shows debug entries
	PrintDebug bool

	// PrintProgress writes progress bar changes to the output file
	PrintProgress bool

	// LockOutputFile serializes appends across processes sharing the file
	LockOutputFile bool

	// HistoryDB is the SQLite history database ("" disables it)
	HistoryDB string
}

// DefaultOptions returns Options with sensible default values
func DefaultOptions() *Options {
	return &Options{
		ChildProcess:          false,
		MessageStructure:      logger.DefaultStructure,
		OutputFile:            "./output.txt",
		ExitMessage:           "",
		AlwaysCutToWidth:      false,
		AnimationInterval:     750 * time.Millisecond,
		AnimationInOutputFile: false,
		PrintDebug:            false,
		PrintProgress:         false,
		LockOutputFile:        true,
		HistoryDB:             "",
	}
}

// Load loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
// The OUTLOG_CHILD environment variable is applied last.
func Load(path string) (*Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		opts.applyEnv()
		return opts, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw fileOptions
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Keys present in the file win, even when they hold a zero value.
	var present map[string]interface{}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	has := func(key string) bool {
		_, ok := present[key]
		return ok
	}

	if has("child_process") {
		opts.ChildProcess = raw.ChildProcess
	}
	if has("message_structure") {
		opts.MessageStructure = raw.MessageStructure
	}
	if has("output_file") {
		opts.OutputFile = raw.OutputFile
	}
	if has("exit_message") {
		opts.ExitMessage = raw.ExitMessage
	}
	if has("always_cut_to_width") {
		opts.AlwaysCutToWidth = raw.AlwaysCutToWidth
	}
	if raw.AnimationInterval != "" {
		interval, err := parseInterval(raw.AnimationInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid animation_interval format %q: %w", raw.AnimationInterval, err)
		}
		opts.AnimationInterval = interval
	}
	if has("animation_in_output_file") {
		opts.AnimationInOutputFile = raw.AnimationInOutputFile
	}
	if has("print_debug") {
		opts.PrintDebug = raw.PrintDebug
	}
	if has("print_progress") {
		opts.PrintProgress = raw.PrintProgress
	}
	if has("lock_output_file") {
		opts.LockOutputFile = raw.LockOutputFile
	}
	if has("history_db") {
		opts.HistoryDB = raw.HistoryDB
	}

	opts.applyEnv()
	return opts, nil
}

// parseInterval accepts Go durations and bare integers as milliseconds.
func parseInterval(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// LoadFromDir loads configuration from .outlog/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadFromDir(dir string) (*Options, error) {
	return Load(ConfigPath(dir))
}

func (o *Options) applyEnv() {
	if v, ok := os.LookupEnv(ChildEnv); ok {
		if child, err := strconv.ParseBool(v); err == nil && child {
			o.ChildProcess = true
		}
	}
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (o *Options) MergeWithFlags(outputFile *string, exitMessage *string, printDebug *bool, interval *time.Duration) {
	if outputFile != nil {
		o.OutputFile = *outputFile
	}
	if exitMessage != nil {
		o.ExitMessage = *exitMessage
	}
	if printDebug != nil {
		o.PrintDebug = *printDebug
	}
	if interval != nil {
		o.AnimationInterval = *interval
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (o *Options) Validate() error {
	if o.AnimationInterval < MinAnimationInterval {
		return fmt.Errorf("animation_interval must be >= %v, got %v", MinAnimationInterval, o.AnimationInterval)
	}

	tmpl, err := template.Parse(o.MessageStructure)
	if err != nil {
		return fmt.Errorf("invalid message_structure: %w", err)
	}
	if !tmpl.Has("message") {
		return fmt.Errorf("message_structure %q must contain a {message} field", o.MessageStructure)
	}

	return nil
}

// Template parses MessageStructure.
func (o *Options) Template() (*template.Template, error) {
	return template.Parse(o.MessageStructure)
}

// Marshal renders the options as YAML.
func (o *Options) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(fileOptions{
		ChildProcess:          o.ChildProcess,
		MessageStructure:      o.MessageStructure,
		OutputFile:            o.OutputFile,
		ExitMessage:           o.ExitMessage,
		AlwaysCutToWidth:      o.AlwaysCutToWidth,
		AnimationInterval:     o.AnimationInterval.String(),
		AnimationInOutputFile: o.AnimationInOutputFile,
		PrintDebug:            o.PrintDebug,
		PrintProgress:         o.PrintProgress,
		LockOutputFile:        o.LockOutputFile,
		HistoryDB:             o.HistoryDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
