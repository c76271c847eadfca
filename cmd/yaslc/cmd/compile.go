package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arete/yaslc/internal/compilerrors"
	"github.com/arete/yaslc/internal/config"
	"github.com/arete/yaslc/internal/lexer"
	"github.com/arete/yaslc/internal/parser"
	"github.com/arete/yaslc/internal/tracelog"
)

// runCompile reads a YASL source file, compiles it, and writes the
// resulting assembly to the configured output file. With no positional
// argument it falls back to prompting on stdin, matching the reference
// CLI's interactive mode.
func runCompile(cmd *cobra.Command, args []string) error {
	path, err := sourcePath(args, cmd.InOrStdin())
	if err != nil {
		return exitWithError("%s", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return exitWithError("%s", err)
	}

	var sink *tracelog.Sink
	if verbose {
		sink = tracelog.New(os.Stderr, true)
	} else {
		sink = tracelog.Discard
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return exitWithError("reading %s: %s", path, err)
	}
	sink.Trace("cli", "read-source", map[string]any{"path": path, "bytes": len(src)})

	toks, diags := lexer.ScanAll(string(src), lexer.WithSource(path), lexer.WithTracing(sink), lexer.WithCommentChars(commentChars(cfg.CommentChars)))
	if len(diags) > 0 {
		fmt.Fprint(os.Stderr, diags.Format(true))
		if diags.HasFatal() {
			return fmt.Errorf("lexical errors in %s", path)
		}
	}

	out, err := parser.New(toks, parser.WithSource(path), parser.WithTracing(sink)).Parse()
	if err != nil {
		if d, ok := err.(*compilerrors.Diagnostic); ok {
			fmt.Fprint(os.Stderr, d.Format(true))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}

	if err := os.WriteFile(cfg.OutputFile, []byte(out), 0o644); err != nil {
		return exitWithError("writing %s: %s", cfg.OutputFile, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", cfg.OutputFile)
	}
	return nil
}

// commentChars converts a loaded config's comment-character overrides into
// the rune form lexer.WithCommentChars expects. config.Load has already
// filled every empty field from the default, so each string is non-empty;
// only its first rune is used.
func commentChars(cc config.CommentChars) lexer.CommentChars {
	return lexer.CommentChars{
		BlockOpen:  []rune(cc.BlockOpen)[0],
		BlockClose: []rune(cc.BlockClose)[0],
		LineChar1:  []rune(cc.LineChar1)[0],
		LineChar2:  []rune(cc.LineChar2)[0],
	}
}

// sourcePath returns the file named by the single positional argument, or
// prompts for one on stdin when none was given.
func sourcePath(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	fmt.Print("Please input the name of the YASL file: ")
	r := bufio.NewReader(in)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading file name: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	if line == "" {
		return "", fmt.Errorf("no file name given")
	}
	return line, nil
}
