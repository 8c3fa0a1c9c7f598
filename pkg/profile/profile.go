// Package profile provides the charger-profile catalog: a read-only table
// mapping a charger model id to its electrical requirements.
//
// The catalog is opaque data to the rest of the system. Breaker creation may
// pre-populate an EV breaker from a profile, but compliance checks validate
// the resulting breaker exactly as they would a hand-entered one.
//
// A built-in catalog is returned by [Default]. Additional catalogs are
// loaded from TOML:
//
//	[[profile]]
//	id = "ac80"
//	name = "80A Level 2"
//	level = "Level 2"
//	charger_amps = 80
//	ports = 1
//	output_kw = 19.2
//	nec_min_breaker = 100
//	recommended_breaker = 100
//	min_conductor = "3 AWG Cu"
//	recommended_conductor = "2 AWG Cu"
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/evsingleline/singleline/pkg/electrical"
)

// ErrUnknownProfile is returned by [Catalog.Get] for an id not in the catalog.
var ErrUnknownProfile = errors.New("unknown charger profile")

// Profile describes one charger model.
type Profile struct {
	ID                   string           `toml:"id" json:"id"`
	Name                 string           `toml:"name" json:"name"`
	Level                electrical.Level `toml:"level" json:"level"`
	ChargerAmps          float64          `toml:"charger_amps" json:"chargerAmps"`
	Ports                int              `toml:"ports" json:"ports"`
	OutputKW             float64          `toml:"output_kw" json:"outputKw"`
	NECMinBreaker        int              `toml:"nec_min_breaker" json:"necMinBreaker"`
	RecommendedBreaker   int              `toml:"recommended_breaker" json:"recommendedBreaker"`
	MinConductor         string           `toml:"min_conductor" json:"minConductor"`
	RecommendedConductor string           `toml:"recommended_conductor" json:"recommendedConductor"`
}

// Validate checks that the profile is usable for breaker creation.
func (p Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if !p.Level.Valid() {
		return fmt.Errorf("profile %s: invalid level %q", p.ID, p.Level)
	}
	if p.ChargerAmps <= 0 {
		return fmt.Errorf("profile %s: charger_amps must be positive", p.ID)
	}
	if min := electrical.MinBreakerAmpsForEV(p.ChargerAmps); p.RecommendedBreaker > 0 && p.RecommendedBreaker < min {
		return fmt.Errorf("profile %s: recommended_breaker %dA below NEC minimum %dA", p.ID, p.RecommendedBreaker, min)
	}
	return nil
}

// BreakerAmps returns the breaker rating to pre-populate: the recommended
// breaker, else the NEC minimum, else the next standard size above
// 125% of charger amps.
func (p Profile) BreakerAmps() int {
	if p.RecommendedBreaker > 0 {
		return p.RecommendedBreaker
	}
	if p.NECMinBreaker > 0 {
		return p.NECMinBreaker
	}
	size, _ := electrical.NextBreakerSize(float64(electrical.MinBreakerAmpsForEV(p.ChargerAmps)))
	return size
}

// Catalog is an immutable set of profiles keyed by id.
type Catalog struct {
	byID  map[string]Profile
	order []string
}

// NewCatalog builds a catalog from profiles. Later entries replace earlier
// entries with the same id.
func NewCatalog(profiles ...Profile) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byID[p.ID]; !ok {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

// Get returns the profile with the given id.
func (c *Catalog) Get(id string) (Profile, error) {
	p, ok := c.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, id)
	}
	return p, nil
}

// All returns every profile in insertion order.
func (c *Catalog) All() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// ForLevel returns the profiles at level l, sorted by charger amps.
func (c *Catalog) ForLevel(l electrical.Level) []Profile {
	var out []Profile
	for _, p := range c.All() {
		if p.Level == l {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChargerAmps < out[j].ChargerAmps })
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int { return len(c.order) }

// Merge returns a catalog with the profiles of other layered over c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{byID: make(map[string]Profile, len(c.byID))}
	for _, src := range []*Catalog{c, other} {
		if src == nil {
			continue
		}
		for _, p := range src.All() {
			if _, ok := merged.byID[p.ID]; !ok {
				merged.order = append(merged.order, p.ID)
			}
			merged.byID[p.ID] = p
		}
	}
	return merged
}

type catalogFile struct {
	Profiles []Profile `toml:"profile"`
}

// Read decodes a TOML catalog from r.
func Read(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return NewCatalog(f.Profiles...)
}

// Load reads a TOML catalog file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
