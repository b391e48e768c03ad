package export

import (
	"fmt"

	"github.com/buildflow/buildflow/markup"
)

// Markdown converts a design fragment to Markdown. Identifier attributes are
// stripped first; layout-only wrapper elements flatten away in conversion,
// which is the expected lossy direction for this format.
func (e *Exporter) Markdown(fragment string) (string, error) {
	md, err := e.conv.ConvertString(markup.StripIdentifiers(fragment))
	if err != nil {
		return "", fmt.Errorf("export: convert markdown: %w", err)
	}
	return md, nil
}
