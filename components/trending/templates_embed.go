package trending

import (
	"embed"
	"fmt"
	"io"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html templates/**/*.html
var embeddedTemplates embed.FS

// Renderer describes the template renderer contract needed by the controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// TemplatesFS exposes the board templates rooted at the templates directory.
func TemplatesFS() (fs.FS, error) {
	return fs.Sub(embeddedTemplates, "templates")
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded
// board templates. Template fields follow the json tags of the view models.
func NewTemplateRenderer() (Renderer, error) {
	root, err := TemplatesFS()
	if err != nil {
		return nil, fmt.Errorf("trending: templates fs: %w", err)
	}
	return template.NewRenderer(
		template.WithFS(root),
		template.WithExtension(".html"),
	)
}
