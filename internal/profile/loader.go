// Package profile turns résumé files into the text context the oracle sees
// and into the few profile values the answerer reads directly.
package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"go-autoapply/internal/models"
	"go-autoapply/internal/pdf"
)

var supported = []string{".yaml", ".yml", ".json", ".pdf", ".txt"}

// Loader resolves profile keys to résumé text. A key is a file path, or a
// base name looked up in Dir with each supported extension.
type Loader struct {
	Dir string

	mu    sync.Mutex
	cache map[string]string
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir, cache: make(map[string]string)}
}

// Context implements ai.ContextSource.
func (l *Loader) Context(_ context.Context, key string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if text, ok := l.cache[key]; ok {
		return text, nil
	}

	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	text, err := Parse(path)
	if err != nil {
		return "", err
	}
	l.cache[key] = text
	return text, nil
}

func (l *Loader) resolve(key string) (string, error) {
	candidates := []string{key}
	if l.Dir != "" && !filepath.IsAbs(key) {
		candidates = append(candidates, filepath.Join(l.Dir, key))
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c, nil
		}
		if filepath.Ext(c) == "" {
			for _, ext := range supported {
				if _, err := os.Stat(c + ext); err == nil {
					return c + ext, nil
				}
			}
		}
	}
	return "", fmt.Errorf("resume file not found: %s", key)
}

// Parse reads a résumé file and returns it as readable text.
func Parse(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		// JSON is valid YAML; decoding to a node keeps key order
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return FormatStructured(&doc), nil
	case ".pdf":
		return pdf.ExtractText(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported resume format: %s", ext)
	}
}

// FormatStructured renders a YAML/JSON document as indented text with
// upper-cased section headings.
func FormatStructured(doc *yaml.Node) string {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(root.Content); i += 2 {
		heading := strings.ToUpper(strings.ReplaceAll(root.Content[i].Value, "_", " "))
		fmt.Fprintf(&b, "\n%s:\n", heading)
		b.WriteString(formatValue(root.Content[i+1], 1))
	}
	return strings.TrimSpace(b.String())
}

func formatValue(n *yaml.Node, indent int) string {
	pad := strings.Repeat("  ", indent)
	var b strings.Builder
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			fmt.Fprintf(&b, "%s%s: ", pad, k.Value)
			if v.Kind == yaml.MappingNode || v.Kind == yaml.SequenceNode {
				b.WriteString("\n" + formatValue(v, indent+1))
			} else {
				b.WriteString(v.Value + "\n")
			}
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if item.Kind == yaml.MappingNode {
				b.WriteString(pad + "- " + formatValue(item, indent+1))
			} else {
				b.WriteString(pad + "- " + item.Value + "\n")
			}
		}
	case yaml.AliasNode:
		if n.Alias != nil {
			return formatValue(n.Alias, indent)
		}
	default:
		b.WriteString(pad + n.Value + "\n")
	}
	return b.String()
}

// LoadProfile reads the personal fields of a YAML or JSON résumé. Other
// formats yield an empty profile.
func LoadProfile(path string) (models.Profile, error) {
	var p models.Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}
