// ABOUTME: Optional TOML manifest declaring extra catalog entries and disabled tool packs.
// ABOUTME: Replaces runtime plugin scanning: the handler set is fixed at startup by config.

package registry

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Manifest is the decoded catalog manifest. Example:
//
//	[packs]
//	disabled = ["openai", "transcribe"]
//
//	[[resource]]
//	uri = "memory://faq"
//	description = "Frequently asked questions"
//
//	[[prompt]]
//	id = "summarize"
//	name = "Summarize"
//	description = "Summarizes input text"
//	template = "Summarize the following: {{input}}"
type Manifest struct {
	Packs     ManifestPacks      `toml:"packs"`
	Resources []ManifestResource `toml:"resource"`
	Prompts   []ManifestPrompt   `toml:"prompt"`
}

// ManifestPacks controls which tool packs register at startup.
type ManifestPacks struct {
	Disabled []string `toml:"disabled"`
}

// ManifestResource is a resource entry in the manifest.
type ManifestResource struct {
	URI         string         `toml:"uri"`
	Description string         `toml:"description"`
	Metadata    map[string]any `toml:"metadata"`
}

// ManifestPrompt is a prompt entry in the manifest.
type ManifestPrompt struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Template    string `toml:"template"`
}

// LoadManifest reads and decodes a manifest file. A missing path yields an
// empty manifest, not an error, so the manifest stays optional.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return &Manifest{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Manifest{}, nil
	}

	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	for _, res := range m.Resources {
		if res.URI == "" {
			return nil, fmt.Errorf("manifest resource missing uri")
		}
	}
	for _, p := range m.Prompts {
		if p.ID == "" {
			return nil, fmt.Errorf("manifest prompt missing id")
		}
	}
	return &m, nil
}

// Disabled reports whether the named tool pack is switched off.
func (m *Manifest) Disabled(pack string) bool {
	for _, name := range m.Packs.Disabled {
		if name == pack {
			return true
		}
	}
	return false
}

// Apply adds the manifest's resources and prompts to the catalog.
func (m *Manifest) Apply(c *Catalog) {
	for _, res := range m.Resources {
		meta := res.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		c.AddResource(Resource{URI: res.URI, Description: res.Description, Metadata: meta})
	}
	for _, p := range m.Prompts {
		c.AddPrompt(Prompt{ID: p.ID, Name: p.Name, Description: p.Description, Template: p.Template})
	}
}
