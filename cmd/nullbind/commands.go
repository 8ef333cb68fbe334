package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/nullbind"
	"github.com/reoring/nullbind/register"
)

// docFlags are shared by the subcommands that read a document.
type docFlags struct {
	schema        string
	strategy      string
	format        string
	maxDepth      int
	maxBytes      int64
	duplicateKeys string
}

func (f *docFlags) register(cmd *cobra.Command, cfg config) {
	cmd.Flags().StringVar(&f.schema, "schema", "", "YAML schema declaration (required)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "override the declared strategy: setter or constructor")
	cmd.Flags().StringVar(&f.format, "format", "", "document format: json or yaml (default from file extension)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", cfg.MaxDepth, "maximum nesting depth, 0 disables")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", cfg.MaxBytes, "maximum document size, 0 disables")
	cmd.Flags().StringVar(&f.duplicateKeys, "duplicate-keys", cfg.DuplicateKeys, "duplicate key handling: ignore, warn or error")
	_ = cmd.MarkFlagRequired("schema")
}

func (f *docFlags) loadSchema() (*nullbind.Schema[register.Record], error) {
	return loadSchema(f.schema, f.strategy)
}

func (f *docFlags) parse(cmd *cobra.Command, args []string, logger zerolog.Logger) (nullbind.Object, error) {
	sev, err := nullbind.ParseSeverity(f.duplicateKeys)
	if err != nil {
		return nil, err
	}
	opt := nullbind.ParseOpt{
		OnDuplicateKey: sev,
		MaxDepth:       f.maxDepth,
		MaxBytes:       f.maxBytes,
		IssueSink: func(is nullbind.Issue) {
			logger.Warn().Str("path", is.Path).Str("code", is.Code).Msg(is.Message)
		},
	}
	name := "-"
	if len(args) > 0 {
		name = args[0]
	}
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	format := f.format
	if format == "" {
		format = formatOf(name)
	}
	logger.Debug().Str("document", name).Str("format", format).Int("bytes", len(data)).Msg("parsing document")
	switch format {
	case "json":
		return nullbind.ParseJSON(data, opt)
	case "yaml", "yml":
		return nullbind.ParseYAML(data, opt)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func newBindCmd(cfg config, logger zerolog.Logger) *cobra.Command {
	var f docFlags
	var meta bool
	cmd := &cobra.Command{
		Use:   "bind [document]",
		Short: "Bind a document and print the resulting record as JSON",
		Long: `Bind a document against a schema declaration and print the record.

The document is read from the named file, or from standard input when the
argument is omitted or "-". With --meta the output also carries the
presence flags of every property path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.loadSchema()
			if err != nil {
				return err
			}
			doc, err := f.parse(cmd, args, logger)
			if err != nil {
				return reportIssues(logger, err)
			}
			dec, err := nullbind.BindDocumentWithMeta(doc, s)
			if err != nil {
				return reportIssues(logger, err)
			}
			logger.Debug().Str("schema", s.Name()).Str("strategy", s.Strategy().String()).Msg("bound")
			if !meta {
				return writeJSON(cmd.OutOrStdout(), dec.Value)
			}
			flags := make(map[string]string, len(dec.Presence))
			for p, pr := range dec.Presence {
				flags[p] = pr.String()
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"value": dec.Value, "presence": flags})
		},
	}
	f.register(cmd, cfg)
	cmd.Flags().BoolVar(&meta, "meta", false, "include presence flags in the output")
	return cmd
}

func newResolveCmd(cfg config, logger zerolog.Logger) *cobra.Command {
	var f docFlags
	cmd := &cobra.Command{
		Use:   "resolve [document]",
		Short: "Print how every declared property resolves",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.loadSchema()
			if err != nil {
				return err
			}
			doc, err := f.parse(cmd, args, logger)
			if err != nil {
				return reportIssues(logger, err)
			}
			values, err := s.Resolve(doc)
			if err != nil {
				return reportIssues(logger, err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tPOLICY\tPRESENCE\tPROVENANCE\tVALUE")
			writeResolved(tw, values)
			return tw.Flush()
		},
	}
	f.register(cmd, cfg)
	return cmd
}

func writeResolved(w io.Writer, values []nullbind.ResolvedValue) {
	for _, v := range values {
		final := "(skip)"
		if !v.Skipped() {
			b, err := gojson.Marshal(v.Final)
			if err != nil {
				final = fmt.Sprintf("%v", v.Final)
			} else {
				final = string(b)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Path, v.Property.Policy(), v.Presence.Kind, v.Provenance(), final)
		writeResolved(w, v.Nested)
	}
}

func newJSONSchemaCmd(logger zerolog.Logger) *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "jsonschema",
		Short: "Print the JSON Schema of a declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(schema, "")
			if err != nil {
				return err
			}
			logger.Debug().Str("schema", s.Name()).Int("properties", len(s.Properties())).Msg("exporting")
			return writeJSON(cmd.OutOrStdout(), s.JSONSchema())
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "YAML schema declaration (required)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func loadSchema(path, strategy string) (*nullbind.Schema[register.Record], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	decl, err := register.LoadDeclaration(data)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	if strategy == "" {
		return decl.Schema()
	}
	st, err := nullbind.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	return decl.SchemaFor(st)
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// reportIssues logs every issue carried by err and returns err for the exit
// status.
func reportIssues(logger zerolog.Logger, err error) error {
	for _, is := range nullbind.IssuesOf(err) {
		ev := logger.Error().Str("path", is.Path).Str("code", is.Code)
		if is.Property != "" {
			ev = ev.Str("property", is.Property)
		}
		if is.Hint != "" {
			ev = ev.Str("hint", is.Hint)
		}
		ev.Msg(is.Message)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	b, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
