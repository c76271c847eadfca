// Package config loads the compiler's optional sidecar configuration file.
//
// Per §3, a `.yaslc.yaml` sidecar can override two things for embedding
// this compiler in alternate toolchains during development: the fixed
// output filename and the four comment/whitespace characters the scanner
// recognizes (the block comment's open/close delimiters and the two
// characters that form the line-comment marker). Absent any file, or for
// any field the file leaves unset, the spec-mandated defaults (out.yasl,
// `{...}` and `//...` comment syntax) apply unconditionally — this file
// never changes what the language accepts beyond what a loaded config
// explicitly asks for.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// CommentChars overrides the scanner's comment delimiters. Each field is a
// single-character string; an empty field falls back to its default in
// Load, so a sidecar only needs to name the characters it changes.
type CommentChars struct {
	// BlockOpen overrides the block comment's opening delimiter ("{").
	BlockOpen string `yaml:"block_open"`
	// BlockClose overrides the block comment's closing delimiter ("}").
	BlockClose string `yaml:"block_close"`
	// LineChar1 and LineChar2 together form the line-comment marker
	// ("//" by default); they need not match each other.
	LineChar1 string `yaml:"line_char1"`
	LineChar2 string `yaml:"line_char2"`
}

// defaultCommentChars is the spec-mandated `{ … }` and `// …` syntax.
func defaultCommentChars() CommentChars {
	return CommentChars{BlockOpen: "{", BlockClose: "}", LineChar1: "/", LineChar2: "/"}
}

// Config is the optional .yaslc.yaml sidecar shape.
type Config struct {
	// OutputFile overrides the fixed "out.yasl" output name, when set.
	OutputFile string `yaml:"output_file"`
	// CommentChars overrides the scanner's comment delimiters, when set.
	CommentChars CommentChars `yaml:"comment_chars"`
}

// Default returns the spec-mandated defaults with no overrides applied.
func Default() Config {
	return Config{OutputFile: "out.yasl", CommentChars: defaultCommentChars()}
}

// Load reads and parses a YAML config file at path. A missing file is not an
// error: Load returns the defaults unchanged. Any field the file leaves
// blank (including within comment_chars) is filled from the default rather
// than left empty, so a sidecar can override just one character.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if cfg.OutputFile == "" {
		cfg.OutputFile = "out.yasl"
	}
	def := defaultCommentChars()
	if cfg.CommentChars.BlockOpen == "" {
		cfg.CommentChars.BlockOpen = def.BlockOpen
	}
	if cfg.CommentChars.BlockClose == "" {
		cfg.CommentChars.BlockClose = def.BlockClose
	}
	if cfg.CommentChars.LineChar1 == "" {
		cfg.CommentChars.LineChar1 = def.LineChar1
	}
	if cfg.CommentChars.LineChar2 == "" {
		cfg.CommentChars.LineChar2 = def.LineChar2
	}

	return cfg, nil
}
