package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDF prints the rendered page to PDF and runs the result through pdfcpu
// validation and optimization. Chrome's print output carries duplicate font
// resources per page; optimization typically shrinks it substantially.
func (e *Exporter) PDF(ctx context.Context, page *rod.Page) ([]byte, error) {
	stream, err := page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export: print pdf: %w", err)
	}
	raw, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("export: read pdf stream: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(raw), conf); err != nil {
		// A PDF Chrome printed but pdfcpu rejects is still usable; log and
		// return it unoptimized rather than failing the export.
		e.logger.Warn("export: pdf validation failed, returning unoptimized", "error", err)
		return raw, nil
	}

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw), &out, conf); err != nil {
		e.logger.Warn("export: pdf optimize failed, returning unoptimized", "error", err)
		return raw, nil
	}
	return out.Bytes(), nil
}
