package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evsingleline/singleline/pkg/electrical"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Len() != 14 {
		t.Errorf("Len = %d, want 14", c.Len())
	}
	for _, p := range c.All() {
		if min := electrical.MinBreakerAmpsForEV(p.ChargerAmps); p.NECMinBreaker < min {
			t.Errorf("%s: nec_min_breaker %d below ceil(1.25*%v)=%d", p.ID, p.NECMinBreaker, p.ChargerAmps, min)
		}
		if !electrical.IsStandardBreakerSize(float64(p.RecommendedBreaker)) {
			t.Errorf("%s: recommended breaker %d is not a standard size", p.ID, p.RecommendedBreaker)
		}
	}
}

func TestCatalogGet(t *testing.T) {
	c := Default()
	p, err := c.Get("dc60")
	if err != nil {
		t.Fatalf("Get(dc60): %v", err)
	}
	if p.ChargerAmps != 81 || p.Level != electrical.Level3 {
		t.Errorf("dc60 = %+v", p)
	}
	if p.BreakerAmps() != 125 {
		t.Errorf("BreakerAmps = %d, want 125", p.BreakerAmps())
	}

	if _, err := c.Get("nope"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Get(nope) error = %v, want ErrUnknownProfile", err)
	}
}

func TestForLevel(t *testing.T) {
	l2 := Default().ForLevel(electrical.Level2)
	if len(l2) != 4 {
		t.Fatalf("ForLevel(Level 2) = %d profiles, want 4", len(l2))
	}
	for i := 1; i < len(l2); i++ {
		if l2[i].ChargerAmps < l2[i-1].ChargerAmps {
			t.Errorf("ForLevel not sorted by amps: %v", l2)
		}
	}
}

func TestBreakerAmpsFallback(t *testing.T) {
	p := Profile{ID: "x", Level: electrical.Level2, ChargerAmps: 40}
	if got := p.BreakerAmps(); got != 50 {
		t.Errorf("BreakerAmps = %d, want 50", got)
	}
}

const catalogTOML = `
[[profile]]
id = "wall48"
name = "Wallbox 48"
level = "Level 2"
charger_amps = 48
ports = 1
nec_min_breaker = 60
recommended_breaker = 60

[[profile]]
id = "dc60"
name = "Override DC/60"
level = "Level 3"
charger_amps = 81
ports = 1
output_kw = 60
recommended_breaker = 110
`

func TestRead(t *testing.T) {
	c, err := Read(strings.NewReader(catalogTOML))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	p, _ := c.Get("wall48")
	if p.ChargerAmps != 48 || p.RecommendedBreaker != 60 {
		t.Errorf("wall48 = %+v", p)
	}

	merged := Default().Merge(c)
	if merged.Len() != 15 {
		t.Errorf("merged Len = %d, want 15", merged.Len())
	}
	dc60, _ := merged.Get("dc60")
	if dc60.Name != "Override DC/60" {
		t.Errorf("merge did not override dc60: %q", dc60.Name)
	}
}

func TestReadRejectsUndersizedBreaker(t *testing.T) {
	bad := `
[[profile]]
id = "bad"
level = "Level 2"
charger_amps = 40
recommended_breaker = 40
`
	if _, err := Read(strings.NewReader(bad)); err == nil {
		t.Error("expected error for recommended breaker below 125%")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.toml")
	if err := os.WriteFile(path, []byte(catalogTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
