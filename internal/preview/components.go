package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TarekRaafat/eleva"
)

// LoadComponents registers every *.html file under dir as a template
// component named after its base name, so counter.html becomes the
// component "counter". Re-registering on file change replaces the
// definition for future mounts.
func LoadComponents(app *eleva.Eleva, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("preview: reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("preview: reading %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".html")
		def := &eleva.ComponentDefinition{
			Template: eleva.Static(string(raw)),
		}
		if err := app.Register(name, def); err != nil {
			return nil, fmt.Errorf("preview: registering %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}
