package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/docx-render/internal/errs"
	"github.com/deppfellow/docx-render/internal/lib/docx"
	"github.com/deppfellow/docx-render/internal/server"
)

// Engine is the template engine used by RenderService.
// *docx.Engine is the production implementation.
type Engine interface {
	Open(b []byte) (*docx.Document, error)
	Compile(doc *docx.Document) (*docx.Template, error)
	Render(tpl *docx.Template, data map[string]any) (*docx.Document, error)
	Serialize(doc *docx.Document) ([]byte, error)
}

const invalidDataMessage = "Data field must be either a JSON object or a valid JSON string"

// RenderInput is an already decoded render job.
type RenderInput struct {
	Template []byte
	Data     map[string]any
}

// RenderOutput is a rendered document with the metadata returned to callers.
type RenderOutput struct {
	Document       []byte
	OutputBase64   string
	OutputSizeKB   float64
	ProcessingTime time.Duration
}

// RenderService runs the render pipeline.
type RenderService struct {
	server *server.Server
	engine Engine
}

func NewRenderService(s *server.Server, engine Engine) *RenderService {
	return &RenderService{
		server: s,
		engine: engine,
	}
}

// RenderEncoded runs the whole pipeline on the wire form of a request: data
// parsing, template size check, base64 decoding, then RenderDocument.
func (s *RenderService) RenderEncoded(ctx context.Context, templateBase64 string, data json.RawMessage) (*RenderOutput, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx)

	if templateBase64 == "" {
		return nil, errs.NewBadRequestError("Missing required field: templateBase64", false, nil, nil)
	}

	parsed, err := ParseData(data)
	if err != nil {
		return nil, err
	}

	if limit := s.server.Config.Render.MaxTemplateSize; len(templateBase64) > limit {
		code := "TEMPLATE_TOO_LARGE"
		return nil, errs.NewBadRequestError(fmt.Sprintf(
			"Template too large. Maximum Base64 size is %sMB. Received: %.2fMB",
			formatMB(limit), float64(len(templateBase64))/1024/1024,
		), false, &code, nil)
	}

	logger.Info().
		Str("template_size_kb", fmt.Sprintf("%.2f", float64(len(templateBase64))/1024)).
		Msg("render request received")

	template, err := DecodeTemplate(templateBase64)
	if err != nil {
		return nil, err
	}

	return s.render(ctx, start, RenderInput{Template: template, Data: parsed})
}

// RenderDocument renders an already decoded template.
func (s *RenderService) RenderDocument(ctx context.Context, in RenderInput) (*RenderOutput, error) {
	return s.render(ctx, time.Now(), in)
}

func (s *RenderService) render(ctx context.Context, start time.Time, in RenderInput) (*RenderOutput, error) {
	logger := zerolog.Ctx(ctx)
	txn := newrelic.FromContext(ctx)

	if in.Data == nil {
		in.Data = map[string]any{}
	}

	seg := txn.StartSegment("docx.open")
	doc, err := s.engine.Open(in.Template)
	seg.End()
	if err != nil {
		return nil, openError(err, len(in.Template))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render stopped after open: %w", err)
	}

	seg = txn.StartSegment("docx.compile")
	tpl, err := s.engine.Compile(doc)
	seg.End()
	if err != nil {
		logCompileError(logger, err, len(in.Template), len(doc.Entries))
		s.recordFailure("compile", err)
		return nil, errs.NewRenderError("Failed to initialize template engine: "+err.Error(), "TEMPLATE_SYNTAX_ERROR").
			WithCause(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render stopped after compile: %w", err)
	}

	seg = txn.StartSegment("docx.render")
	rendered, err := s.renderTemplate(tpl, in.Data)
	seg.End()
	if err != nil {
		explanation := err.Error()
		var renderErr *docx.RenderError
		if errors.As(err, &renderErr) {
			explanation = renderErr.Explanation
			logger.Error().Err(err).Str("part", renderErr.Part).Msg("template rendering failed")
		}
		s.recordFailure("render", err)
		return nil, errs.NewRenderError("Template error: "+explanation, "TEMPLATE_RENDER_ERROR").WithCause(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render stopped after render: %w", err)
	}

	seg = txn.StartSegment("docx.serialize")
	out, err := s.engine.Serialize(rendered)
	seg.End()
	if err != nil {
		s.recordFailure("serialize", err)
		return nil, errs.NewRenderError("Failed to generate output DOCX: "+err.Error(), "OUTPUT_GENERATION_ERROR").
			WithCause(err)
	}

	encoded := base64.StdEncoding.EncodeToString(out)
	result := &RenderOutput{
		Document:       out,
		OutputBase64:   encoded,
		OutputSizeKB:   math.Round(float64(len(encoded))/1024*100) / 100,
		ProcessingTime: time.Since(start),
	}

	event := logger.Info()
	if threshold := s.slowRenderThreshold(); threshold > 0 && result.ProcessingTime > threshold {
		event = logger.Warn().Bool("slow", true)
	}
	event.
		Str("output_size_kb", fmt.Sprintf("%.2f", result.OutputSizeKB)).
		Int64("processing_time_ms", result.ProcessingTime.Milliseconds()).
		Msg("render completed")

	if txn != nil {
		txn.AddAttribute("render.input_bytes", len(in.Template))
		txn.AddAttribute("render.output_bytes", len(out))
		txn.AddAttribute("render.processing_ms", result.ProcessingTime.Milliseconds())
	}

	return result, nil
}

// renderTemplate calls the engine, turning a panic into a *docx.RenderError.
func (s *RenderService) renderTemplate(tpl *docx.Template, data map[string]any) (doc *docx.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &docx.RenderError{Part: "document", Explanation: fmt.Sprint(r)}
		}
	}()
	return s.engine.Render(tpl, data)
}

func (s *RenderService) slowRenderThreshold() time.Duration {
	if s.server.Config.Observability == nil {
		return 0
	}
	return s.server.Config.Observability.Logging.SlowRenderThreshold
}

func (s *RenderService) recordFailure(stage string, err error) {
	s.server.LoggerService.RecordCustomEvent("RenderError", map[string]interface{}{
		"stage":         stage,
		"error_message": err.Error(),
	})
}

func logCompileError(logger *zerolog.Logger, err error, templateSize, entries int) {
	event := logger.Error().
		Int("template_bytes", templateSize).
		Int("archive_entries", entries)

	var multi *docx.MultiError
	if errors.As(err, &multi) {
		details := zerolog.Arr()
		for _, e := range multi.Errors {
			details.Dict(zerolog.Dict().
				Str("part", e.Part).
				Str("tag", e.Tag).
				Str("explanation", e.Explanation))
		}
		event = event.Int("error_count", len(multi.Errors)).Array("errors", details)
	}
	event.Msg("template engine initialization failed")
}

// openError maps archive validation failures to client errors.
func openError(err error, size int) error {
	var sizeErr *docx.SizeError
	var sigErr *docx.SignatureError
	var missingErr *docx.MissingEntriesError

	switch {
	case errors.As(err, &sizeErr):
		code := "TEMPLATE_TOO_SMALL"
		return errs.NewBadRequestError(fmt.Sprintf(
			"Template appears to be too small or invalid. Decoded size: %d bytes.", size,
		), false, &code, nil).WithCause(err)

	case errors.As(err, &sigErr):
		code := "INVALID_DOCX_SIGNATURE"
		return errs.NewBadRequestError(
			"Template does not appear to be a valid DOCX file. Expected ZIP signature (PK), got: "+sigErr.Got,
			false, &code, nil,
		).WithCause(err)

	case errors.As(err, &missingErr):
		code := "INVALID_DOCX"
		return errs.NewBadRequestError(fmt.Sprintf(
			"Invalid DOCX template: Missing required files: %s. The file may be corrupted or not a valid DOCX file.",
			strings.Join(missingErr.Entries, ", "),
		), false, &code, nil).WithCause(err)

	case errors.Is(err, docx.ErrNotArchive):
		code := "INVALID_ZIP"
		detail := strings.TrimPrefix(err.Error(), docx.ErrNotArchive.Error()+": ")
		return errs.NewBadRequestError(
			"Invalid DOCX template format (not a valid ZIP file): "+detail, false, &code, nil,
		).WithCause(err)
	}

	return errs.NewInternalServerError(err.Error()).WithCause(err)
}

// ParseData resolves the data field of a request into a key-value mapping.
// The field holds either a JSON object or a string containing one. Numbers
// keep their exact text.
func ParseData(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, missingData()
	}

	var value any
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalidData()
		}
		if text == "" {
			return nil, missingData()
		}
		v, err := decodeJSON([]byte(text))
		if err != nil {
			code := "INVALID_DATA_JSON"
			return nil, errs.NewBadRequestError(
				"Invalid JSON string in data field: "+err.Error(), false, &code, nil,
			).WithCause(err)
		}
		value = v
	} else {
		v, err := decodeJSON(raw)
		if err != nil {
			return nil, invalidData()
		}
		if falsy(v) {
			return nil, missingData()
		}
		value = v
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, invalidData()
	}
	return obj, nil
}

// falsy reports whether a directly supplied data value counts as absent:
// false and numeric zero.
func falsy(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	}
	return false
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())
	}
	return v, nil
}

func missingData() error {
	return errs.NewBadRequestError("Missing required field: data", false, nil, nil)
}

func invalidData() error {
	code := "INVALID_DATA"
	return errs.NewBadRequestError(invalidDataMessage, false, &code, nil)
}

// DecodeTemplate strips all whitespace from s and decodes it as standard
// base64, padded or not.
func DecodeTemplate(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	b, err := base64.StdEncoding.DecodeString(cleaned)
	if err == nil {
		return b, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(cleaned); rawErr == nil {
		return raw, nil
	}

	code := "INVALID_BASE64"
	return nil, errs.NewBadRequestError(fmt.Sprintf(
		"Invalid Base64 encoding in templateBase64: %s. Make sure the Base64 string is complete and not truncated.",
		err.Error(),
	), false, &code, nil).WithCause(err)
}

// formatMB prints a byte count in MiB without trailing zeros (40, 0.5).
func formatMB(n int) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", float64(n)/1024/1024), "0"), ".")
}
