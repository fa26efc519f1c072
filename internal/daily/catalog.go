package daily

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Names of the built-in pools.
const (
	PoolPrompts = "prompts"
	PoolBonus   = "bonus"
)

//go:embed pools.yaml
var builtinPools []byte

// ErrUnknownPool is returned when a pool name is not in the catalog.
var ErrUnknownPool = errors.New("unknown content pool")

// Catalog holds the named pools compiled into the binary.
type Catalog struct {
	pools map[string]Pool
}

// Load parses the built-in pools.
func Load() (*Catalog, error) {
	return Parse(builtinPools)
}

// MustLoad is Load for program start-up, where a broken pool file is fatal.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML and rejects empty pools and duplicate ids.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Pools []Pool `yaml:"pools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode pools: %w", err)
	}
	if len(doc.Pools) == 0 {
		return nil, fmt.Errorf("decode pools: %w", ErrEmptyPool)
	}

	c := &Catalog{pools: make(map[string]Pool, len(doc.Pools))}
	for _, p := range doc.Pools {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, errors.New("pool name is required")
		}
		if _, dup := c.pools[name]; dup {
			return nil, fmt.Errorf("pool %q declared twice", name)
		}
		if p.Len() == 0 {
			return nil, fmt.Errorf("pool %q: %w", name, ErrEmptyPool)
		}
		seen := make(map[string]struct{}, p.Len())
		for i, item := range p.Items {
			if item.ID == "" || strings.TrimSpace(item.Text) == "" {
				return nil, fmt.Errorf("pool %q item %d: id and text are required", name, i)
			}
			if _, dup := seen[item.ID]; dup {
				return nil, fmt.Errorf("pool %q: duplicate item id %q", name, item.ID)
			}
			seen[item.ID] = struct{}{}
		}
		p.Name = name
		c.pools[name] = p
	}
	return c, nil
}

// Pool returns a copy of the named pool.
func (c *Catalog) Pool(name string) (Pool, error) {
	p, ok := c.pools[name]
	if !ok {
		return Pool{}, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	items := make([]Item, len(p.Items))
	copy(items, p.Items)
	return Pool{Name: p.Name, Items: items}, nil
}

// Names lists the pools in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.pools))
	for name := range c.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Today selects the item of the named pool for ref's calendar day.
func (c *Catalog) Today(name string, ref time.Time) (Item, error) {
	p, ok := c.pools[name]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	return Select(p, ref)
}

// Find looks an item up by id within a pool.
func (c *Catalog) Find(name, id string) (Item, bool) {
	p, ok := c.pools[name]
	if !ok {
		return Item{}, false
	}
	for _, item := range p.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
