// Package catalog holds the list of assets that can be added to a portfolio.
//
// The catalog is filled from the providers listing pages (investfunds) or by
// hand, and persisted as a JSONL file, one asset per line.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/assetutils/portfolio"
)

// Catalog is an in-memory portfolio.AssetCatalog. Assets keep their insertion order.
type Catalog struct {
	assets []portfolio.AssetDescriptor
	index  map[string]int
}

// New returns a catalog containing these assets.
func New(assets ...portfolio.AssetDescriptor) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int)}
	for _, a := range assets {
		if err := c.Add(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Len returns the number of assets.
func (c *Catalog) Len() int { return len(c.assets) }

// All returns a copy of all the assets.
func (c *Catalog) All() []portfolio.AssetDescriptor { return slices.Clone(c.assets) }

// Add appends an asset, its ID must be new.
func (c *Catalog) Add(a portfolio.AssetDescriptor) error {
	if err := validate(a); err != nil {
		return err
	}
	if _, exists := c.index[a.ID]; exists {
		return fmt.Errorf("%w: asset %q is already in the catalog", portfolio.ErrValidation, a.ID)
	}
	c.index[a.ID] = len(c.assets)
	c.assets = append(c.assets, a)
	return nil
}

// Merge adds new assets and replaces the ones already known. It returns the
// number of added assets.
func (c *Catalog) Merge(assets []portfolio.AssetDescriptor) (int, error) {
	added := 0
	for _, a := range assets {
		if err := validate(a); err != nil {
			return added, err
		}
		if i, exists := c.index[a.ID]; exists {
			c.assets[i] = a
			continue
		}
		c.index[a.ID] = len(c.assets)
		c.assets = append(c.assets, a)
		added++
	}
	return added, nil
}

func validate(a portfolio.AssetDescriptor) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: asset without id", portfolio.ErrValidation)
	}
	if _, err := portfolio.ParseAssetKind(string(a.Kind)); err != nil {
		return fmt.Errorf("asset %q: %w", a.ID, err)
	}
	return nil
}

// Lookup implements portfolio.AssetCatalog.
func (c *Catalog) Lookup(id string) (portfolio.AssetDescriptor, error) {
	i, ok := c.index[id]
	if !ok {
		return portfolio.AssetDescriptor{}, fmt.Errorf("%w: asset %q is not in the catalog", portfolio.ErrNotFound, id)
	}
	return c.assets[i], nil
}

// Search implements portfolio.AssetCatalog.
//
// An asset matches when its name contains the token, ignoring case, or when
// its ticker or ID is the token. The empty token matches everything.
func (c *Catalog) Search(token string) []portfolio.AssetDescriptor {
	token = strings.TrimSpace(token)
	lower := strings.ToLower(token)
	var res []portfolio.AssetDescriptor
	for _, a := range c.assets {
		if strings.Contains(strings.ToLower(a.Name), lower) ||
			strings.EqualFold(a.Ticker, token) ||
			a.ID == token {
			res = append(res, a)
		}
	}
	return res
}

// Resolve returns the asset with this ID, or the only asset matching token.
func (c *Catalog) Resolve(token string) (portfolio.AssetDescriptor, error) {
	if a, err := c.Lookup(token); err == nil {
		return a, nil
	}
	found := c.Search(token)
	switch len(found) {
	case 0:
		return portfolio.AssetDescriptor{}, fmt.Errorf("%w: no asset matches %q", portfolio.ErrNotFound, token)
	case 1:
		return found[0], nil
	default:
		return portfolio.AssetDescriptor{}, fmt.Errorf("%w: %d assets match %q, use the id", portfolio.ErrValidation, len(found), token)
	}
}
