package docs

import (
	"bufio"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md can be loaded, and every topic is listed.
	readme, err := Topic(index)
	if err != nil {
		t.Fatalf("Topic(%q) error = %v", index, err)
	}
	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(strings.NewReader(readme))
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}

	for _, topic := range listed {
		if _, err := Topic(topic); err != nil {
			t.Errorf("Topic(%q) error = %v", topic, err)
		}
	}
	for _, topic := range List() {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
}

func TestTopic_Unknown(t *testing.T) {
	if _, err := Topic("nope"); err == nil {
		t.Error("Topic(nope) succeeded, want an error")
	}
}

func TestTopic_All(t *testing.T) {
	all, err := Topic("*")
	if err != nil {
		t.Fatalf("Topic(*) error = %v", err)
	}
	for _, topic := range List() {
		content, _ := Topic(topic)
		if !strings.Contains(all, content) {
			t.Errorf("Topic(*) does not contain %q", topic)
		}
	}
}

// TestMarkdown checks the structure of every topic: a single title first, and
// code blocks with a known language.
func TestMarkdown(t *testing.T) {
	languages := []string{"console", "toml"}
	for _, topic := range append(List(), index) {
		t.Run(topic, func(t *testing.T) {
			content, err := Topic(topic)
			if err != nil {
				t.Fatal(err)
			}
			source := []byte(content)
			root := goldmark.DefaultParser().Parse(text.NewReader(source))

			first, ok := root.FirstChild().(*ast.Heading)
			if !ok || first.Level != 1 {
				t.Errorf("%s does not start with a title", topic)
			}
			titles := 0
			err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if !entering {
					return ast.WalkContinue, nil
				}
				switch n := n.(type) {
				case *ast.Heading:
					if n.Level == 1 {
						titles++
					}
				case *ast.FencedCodeBlock:
					if lang := string(n.Language(source)); !slices.Contains(languages, lang) {
						t.Errorf("%s: code block with language %q, want one of %v", topic, lang, languages)
					}
				}
				return ast.WalkContinue, nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if titles != 1 {
				t.Errorf("%s has %d titles, want 1", topic, titles)
			}
		})
	}
}
