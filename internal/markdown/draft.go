package markdown

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Draft is a wiki revision kept in a Markdown file with YAML frontmatter.
type Draft struct {
	Title         string
	Summary       string
	SourcePostIDs []string
	Document      string
}

type frontmatter struct {
	Title         string    `yaml:"title"`
	Summary       string    `yaml:"summary,omitempty"`
	SourcePostIDs idListYAML `yaml:"source_post_ids,omitempty"`
}

// idListYAML accepts a YAML list or a comma/space separated string.
type idListYAML []string

func (l *idListYAML) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = strings.FieldsFunc(n.Value, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
		return nil
	case yaml.SequenceNode:
		var ids []string
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("source_post_ids: line %d: expected scalar", c.Line)
			}
			if v := strings.TrimSpace(c.Value); v != "" {
				ids = append(ids, v)
			}
		}
		*l = ids
		return nil
	}
	return fmt.Errorf("source_post_ids: line %d: expected list or string", n.Line)
}

// ParseFile reads a draft from path.
func ParseFile(path string) (Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return Draft{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a draft. Frontmatter is expected at the top between two lines
// containing only "---"; without it the whole input is the document.
func Parse(r io.Reader) (Draft, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Draft{}, err
	}
	hasFM := strings.TrimSpace(first) == "---"

	var fmBuf, bodyBuf strings.Builder
	if !hasFM {
		bodyBuf.WriteString(first)
	} else {
		closed := false
		for {
			l, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return Draft{}, err
			}
			if strings.TrimSpace(l) == "---" {
				closed = true
				break
			}
			fmBuf.WriteString(l)
			if errors.Is(err, io.EOF) {
				break
			}
		}
		if !closed {
			return Draft{}, errors.New("frontmatter is not closed with ---")
		}
	}
	if _, err := io.Copy(&bodyBuf, br); err != nil {
		return Draft{}, err
	}

	d := Draft{Document: strings.TrimSpace(bodyBuf.String())}
	if hasFM {
		var fm frontmatter
		if err := yaml.Unmarshal([]byte(fmBuf.String()), &fm); err != nil {
			return Draft{}, fmt.Errorf("frontmatter: %w", err)
		}
		d.Title = strings.TrimSpace(fm.Title)
		d.Summary = strings.TrimSpace(fm.Summary)
		d.SourcePostIDs = []string(fm.SourcePostIDs)
	}
	return d, nil
}

// Render writes d back in the format Parse reads.
func Render(d Draft) ([]byte, error) {
	fm, err := yaml.Marshal(frontmatter{
		Title:         d.Title,
		Summary:       d.Summary,
		SourcePostIDs: idListYAML(d.SourcePostIDs),
	})
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(d.Document))
	b.WriteString("\n")
	return b.Bytes(), nil
}
