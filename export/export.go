// Package export turns a stored design into shippable artifacts: a
// standalone HTML document, Markdown, a printed PDF, or a thumbnail image.
//
// Export always starts from the stripped document — element identifiers are
// editor-internal and never appear in output. The HTML and Markdown paths
// are pure; PDF and screenshots need a live rendering and take a rod page.
package export

import (
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Exporter produces design artifacts.
type Exporter struct {
	conv   *converter.Converter
	logger *slog.Logger
}

// New creates an Exporter.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger,
	}
}
