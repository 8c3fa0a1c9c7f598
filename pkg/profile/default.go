package profile

import "github.com/evsingleline/singleline/pkg/electrical"

// builtin is the stock catalog. DCFC input currents are manufacturer-rated
// at 480V three-phase; conductors are 75°C copper.
var builtin = []Profile{
	// Level 2 AC
	{ID: "ac50", Name: "CoreCharger AC/50", Level: electrical.Level2, ChargerAmps: 50, Ports: 1, NECMinBreaker: 70, RecommendedBreaker: 70},
	{ID: "acs50", Name: "CoreCharger ACS/50", Level: electrical.Level2, ChargerAmps: 50, Ports: 1, NECMinBreaker: 70, RecommendedBreaker: 70},
	{ID: "ac80", Name: "CoreCharger AC/80", Level: electrical.Level2, ChargerAmps: 80, Ports: 1, NECMinBreaker: 100, RecommendedBreaker: 125},
	{ID: "dual-ac80", Name: "CoreCharger Dual AC/80", Level: electrical.Level2, ChargerAmps: 80, Ports: 2, NECMinBreaker: 100, RecommendedBreaker: 125},

	// Level 3 DCFC
	{ID: "dc60", Name: "CoreCharger DC/60", Level: electrical.Level3, ChargerAmps: 81, Ports: 2, OutputKW: 60, NECMinBreaker: 110, RecommendedBreaker: 125, MinConductor: "1 AWG", RecommendedConductor: "1/0 AWG"},
	{ID: "dc80", Name: "CoreCharger DC/80", Level: electrical.Level3, ChargerAmps: 107, Ports: 2, OutputKW: 80, NECMinBreaker: 150, RecommendedBreaker: 225, MinConductor: "1/0 AWG", RecommendedConductor: "4/0 AWG"},
	{ID: "dc100", Name: "CoreCharger DC/100", Level: electrical.Level3, ChargerAmps: 133, Ports: 2, OutputKW: 100, NECMinBreaker: 175, RecommendedBreaker: 225, MinConductor: "2/0 AWG", RecommendedConductor: "4/0 AWG"},
	{ID: "dc120", Name: "CoreCharger DC/120", Level: electrical.Level3, ChargerAmps: 158, Ports: 2, OutputKW: 120, NECMinBreaker: 200, RecommendedBreaker: 250, MinConductor: "3/0 AWG", RecommendedConductor: "250 kcmil"},
	{ID: "dc140", Name: "CoreCharger DC/140", Level: electrical.Level3, ChargerAmps: 184, Ports: 2, OutputKW: 140, NECMinBreaker: 250, RecommendedBreaker: 400, MinConductor: "250 kcmil", RecommendedConductor: "500 kcmil"},
	{ID: "dc160", Name: "CoreCharger DC/160", Level: electrical.Level3, ChargerAmps: 209, Ports: 2, OutputKW: 160, NECMinBreaker: 300, RecommendedBreaker: 400, MinConductor: "350 kcmil", RecommendedConductor: "500 kcmil"},
	{ID: "dc180", Name: "CoreCharger DC/180", Level: electrical.Level3, ChargerAmps: 235, Ports: 2, OutputKW: 180, NECMinBreaker: 300, RecommendedBreaker: 400, MinConductor: "350 kcmil", RecommendedConductor: "500 kcmil"},
	{ID: "dc200", Name: "CoreCharger DC/200", Level: electrical.Level3, ChargerAmps: 260, Ports: 2, OutputKW: 200, NECMinBreaker: 350, RecommendedBreaker: 400, MinConductor: "350 kcmil", RecommendedConductor: "500 kcmil"},
	{ID: "dc220", Name: "CoreCharger DC/220", Level: electrical.Level3, ChargerAmps: 286, Ports: 2, OutputKW: 220, NECMinBreaker: 400, RecommendedBreaker: 500, MinConductor: "500 kcmil", RecommendedConductor: "2x 250 kcmil"},
	{ID: "dc240", Name: "CoreCharger DC/240", Level: electrical.Level3, ChargerAmps: 312, Ports: 2, OutputKW: 240, NECMinBreaker: 400, RecommendedBreaker: 500, MinConductor: "500 kcmil", RecommendedConductor: "2x 250 kcmil"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(builtin...)
	if err != nil {
		panic("profile: invalid built-in catalog: " + err.Error())
	}
	return c
}
