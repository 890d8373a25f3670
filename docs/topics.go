// Package docs holds the help topics displayed by "aut topic".
package docs

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed *.md
var docs embed.FS

// index is the topic listing all the others.
const index = "readme"

// Topic returns the markdown content of a topic. "*" returns all of them.
func Topic(name string) (string, error) {
	if name == "*" {
		return Topics(List()...)
	}
	content, err := docs.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found, try one of %s", name, strings.Join(List(), ", "))
	}
	return string(content), nil
}

// Topics returns the content of several topics, one after the other.
func Topics(names ...string) (string, error) {
	var b bytes.Buffer
	for _, name := range names {
		content, err := Topic(name)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// List returns the sorted topic names, without the index.
func List() []string {
	entries, _ := fs.ReadDir(docs, ".")
	var topics []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if e.IsDir() || name == index {
			continue
		}
		topics = append(topics, name)
	}
	slices.Sort(topics)
	return topics
}
