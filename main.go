package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/mcncl/jsonpeel/internal/config"
	"github.com/mcncl/jsonpeel/internal/errors"
	"github.com/mcncl/jsonpeel/internal/formatter"
	"github.com/mcncl/jsonpeel/internal/normalizer"
	"github.com/mcncl/jsonpeel/internal/repair"
)

// CLI defines the command-line interface
var CLI struct {
	Input       string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	URL         string `help:"HTTP(S) URL to fetch input from." short:"u"`
	Output      string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Classify    bool   `help:"Report the input's form (json, escaped, unknown) and escape depth instead of normalizing." short:"c"`
	Unescape    bool   `help:"Decode exactly one level of escaping and print the resulting string." short:"U"`
	Depth       bool   `help:"Print only the detected escape depth." short:"D"`
	Repair      bool   `help:"If normalization fails, attempt to repair the input and retry." short:"R"`
	MaxDepth    int    `help:"Maximum number of unwrap iterations. 0 uses the configured default." default:"0"`
	ShowDepth   bool   `help:"Print the escape depth to stderr alongside the normalized output."`
	Compact     bool   `help:"Render output without whitespace."`
	Indent      string `help:"Indentation for pretty output." default:""`
	Config      string `help:"Path to a config file. Defaults to the nearest .jsonpeel.yml." type:"path"`
	Debug       bool   `help:"Enable debug logging." short:"d"`
	Version     bool   `help:"Show version information." short:"v"`
	Interactive bool   `help:"Run in interactive mode, allowing direct input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("jsonpeel"),
		kong.Description("A tool to normalize escape-wrapped JSON pasted from logs and scripts"),
		kong.UsageOnError(),
	)

	// With no arguments on a terminal, default to interactive paste mode
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	_, err := parser.Parse(os.Args[1:])
	if err != nil {
		// Usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("jsonpeel version %s\n", Version)
		return
	}

	cfg, err := resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	err = run(&Context{Debug: CLI.Debug, Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonpeel --help\n")
		os.Exit(1)
	}
}

// resolveConfig merges config file, environment, and CLI flags, with flags
// winning.
func resolveConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(CLI.Config)
	if err != nil {
		return nil, err
	}

	if CLI.MaxDepth > 0 {
		cfg.MaxDepth = CLI.MaxDepth
	}
	if CLI.Repair {
		cfg.Repair = true
	}
	if CLI.Compact {
		cfg.Output.Compact = true
	}
	if CLI.Indent != "" {
		cfg.Output.Indent = CLI.Indent
	}
	return cfg, cfg.Validate()
}

// run executes the main program logic
func run(ctx *Context) error {
	text, err := readInput()
	if err != nil {
		// Error is already wrapped by readInput
		return err
	}

	switch {
	case CLI.Classify:
		return runClassify(text)
	case CLI.Depth:
		return runDepth(ctx, text)
	case CLI.Unescape:
		return runUnescape(text)
	default:
		return runNormalize(ctx, text)
	}
}

// runNormalize unwraps the input and prints the normalized document.
func runNormalize(ctx *Context, text string) error {
	outcome, err := normalizer.NormalizeDepth(text, ctx.Config.MaxDepth)
	if err != nil && ctx.Config.Repair {
		if ctx.Debug {
			fmt.Fprintf(os.Stderr, "normalize failed (%v), attempting repair\n", err)
		}
		repaired, repairErr := repair.Repair(text)
		if repairErr == nil {
			outcome, err = normalizer.NormalizeDepth(repaired, ctx.Config.MaxDepth)
		}
	}
	if err != nil {
		return err
	}

	f := &formatter.Formatter{
		Compact: ctx.Config.Output.Compact,
		Indent:  ctx.Config.Output.Indent,
	}
	rendered, err := f.FormatString(outcome.Value)
	if err != nil {
		return err
	}

	if CLI.ShowDepth {
		fmt.Fprintf(os.Stderr, "escape depth: %d\n", outcome.EscapeDepth)
	}
	return writeOutput(rendered)
}

// runClassify prints the classification as a small JSON object.
func runClassify(text string) error {
	classification := normalizer.Classify(text)
	out, err := json.Marshal(classification)
	if err != nil {
		return errors.NewOutputError("failed to render classification", err)
	}
	return writeOutput(string(out))
}

// runDepth prints only the escape depth.
func runDepth(ctx *Context, text string) error {
	return writeOutput(fmt.Sprintf("%d", normalizer.EscapeDepthLimit(text, ctx.Config.ProbeLimit)))
}

// runUnescape prints the input with exactly one escape layer removed.
func runUnescape(text string) error {
	decoded, err := normalizer.UnescapeOnce(text)
	if err != nil {
		return err
	}
	return writeOutput(decoded)
}

// readInput reads raw text from file, URL, stdin, or the interactive prompt
func readInput() (string, error) {
	if CLI.Input != "" && CLI.URL != "" {
		return "", errors.NewInputError("cannot specify both --input and --url", nil)
	}

	if CLI.Input != "" {
		data, err := os.ReadFile(CLI.Input)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.NewInputError(
					fmt.Sprintf("file '%s' not found", CLI.Input),
					errors.ErrFileNotFound,
				)
			}
			return "", errors.NewInputError(
				fmt.Sprintf("failed to read file '%s'", CLI.Input),
				err,
			)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return "", errors.NewInputError(
				fmt.Sprintf("input file '%s' is empty", CLI.Input),
				errors.ErrFileEmpty,
			)
		}
		return string(data), nil
	}

	if CLI.URL != "" {
		return fetchURL(CLI.URL)
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return "", errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		// Terminal is interactive (not piped)
		if CLI.Interactive {
			return readInteractiveInput()
		}
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	// Read from stdin (piped input)
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// fetchURL retrieves input text over HTTP(S)
func fetchURL(url string) (string, error) {
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", errors.NewInputError(
			fmt.Sprintf("invalid URL scheme in '%s': only http and https are supported", url),
			nil,
		)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", errors.NewInputError(fmt.Sprintf("request to '%s' failed", url), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing response body: %v\n", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewInputError(
			fmt.Sprintf("request to '%s' returned status %d", url, resp.StatusCode),
			nil,
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewInputError(fmt.Sprintf("failed to read response from '%s'", url), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", errors.NewInputError(
			fmt.Sprintf("response from '%s' is empty", url),
			errors.ErrEmptyInput,
		)
	}
	return string(data), nil
}

// writeOutput writes text to file or stdout
func writeOutput(text string) error {
	if CLI.Output != "" {
		err := os.WriteFile(CLI.Output, []byte(text+"\n"), 0644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", CLI.Output)
		return nil
	}

	_, err := fmt.Println(text)
	if err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste text
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (string, error) {
	fmt.Fprintln(os.Stderr, "jsonpeel Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your text below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(os.Stdin)
	var builder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			builder.WriteString(line)
			break
		}
		if err != nil {
			return "", errors.NewInputError("error reading input", err)
		}
		builder.WriteString(line)
	}

	text := builder.String()
	if len(strings.TrimSpace(text)) == 0 {
		return "", errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing input...")
	return text, nil
}
