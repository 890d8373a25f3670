package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/assetutils/portfolio"
	"github.com/rs/zerolog/log"
)

// Decode reads a catalog, one JSON asset per line. Empty lines are ignored.
func Decode(r io.Reader) (*Catalog, error) {
	c, _ := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		var a portfolio.AssetDescriptor
		if err := json.Unmarshal([]byte(txt), &a); err != nil {
			return nil, fmt.Errorf("%w: line %d: not a correct json: %v", portfolio.ErrParse, i, err)
		}
		if err := c.Add(a); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read catalog: %w", err)
	}
	return c, nil
}

// Encode writes the catalog, one JSON asset per line.
func (c *Catalog) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, a := range c.assets {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("cannot write asset %q: %w", a.ID, err)
		}
	}
	return nil
}

// Load reads the catalog file. A missing file is an empty catalog.
func Load(filename string) (*Catalog, error) {
	f, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("file", filename).Msg("no catalog file, starting empty")
		return New()
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog %q: %w", filename, err)
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load catalog %q: %w", filename, err)
	}
	return c, nil
}

// Save writes the catalog file. The file is replaced atomically.
func (c *Catalog) Save(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create catalog folder: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".catalog-*")
	if err != nil {
		return fmt.Errorf("cannot save catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := c.Encode(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot save catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot save catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("cannot save catalog: %w", err)
	}
	log.Debug().Str("file", filename).Int("assets", len(c.assets)).Msg("catalog saved")
	return nil
}
