package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deppfellow/docx-render/internal/config"
	"github.com/deppfellow/docx-render/internal/lib/utils"
	"github.com/deppfellow/docx-render/internal/logger"
	"github.com/deppfellow/docx-render/internal/server"
	"github.com/deppfellow/docx-render/internal/service"
)

type renderOptions struct {
	template string
	data     string
	out      string
	json     bool
}

// renderSummary is printed by the render command.
type renderSummary struct {
	Output           string  `json:"output"`
	TemplateBytes    int     `json:"templateBytes"`
	OutputBytes      int     `json:"outputBytes"`
	OutputSizeKB     float64 `json:"outputSizeKB"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a local template file",
		Long: `Render a local .docx template with data from a JSON or YAML file,
using the same pipeline as the HTTP service.

  docx-render render --template resume.docx --data resume.yaml --out out.docx

--data - reads JSON from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "path of the .docx template")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "path of the JSON or YAML data file, - for stdin")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output path (default <template>-rendered.docx)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the summary as JSON")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Observability.Logging.Format = "console"

	log := logger.NewLoggerWithWriter(cfg.Observability, nil, cmd.ErrOrStderr()).Level(zerolog.WarnLevel)
	srv, err := server.New(cfg, &log, nil)
	if err != nil {
		return err
	}
	services, err := service.NewServices(srv)
	if err != nil {
		return err
	}

	template, err := os.ReadFile(opts.template)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}

	data, err := loadData(opts.data, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := log.WithContext(cmd.Context())
	result, err := services.Render.RenderDocument(ctx, service.RenderInput{Template: template, Data: data})
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = strings.TrimSuffix(opts.template, filepath.Ext(opts.template)) + "-rendered.docx"
	}
	if err := os.WriteFile(out, result.Document, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	summary := renderSummary{
		Output:           out,
		TemplateBytes:    len(template),
		OutputBytes:      len(result.Document),
		OutputSizeKB:     result.OutputSizeKB,
		ProcessingTimeMs: result.ProcessingTime.Milliseconds(),
	}
	if opts.json {
		return utils.PrintJSON(cmd.OutOrStdout(), summary)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s (%s, template %s) in %dms\n",
		summary.Output,
		humanize.Bytes(uint64(summary.OutputBytes)),
		humanize.Bytes(uint64(summary.TemplateBytes)),
		summary.ProcessingTimeMs,
	)
	return err
}

// loadData reads the data file. .yaml and .yml files are YAML, anything
// else (and stdin) is JSON.
func loadData(path string, stdin io.Reader) (map[string]any, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var data map[string]any
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parsing YAML data: %w", err)
		}
		if data == nil {
			data = map[string]any{}
		}
		return data, nil
	}

	return service.ParseData(json.RawMessage(raw))
}
