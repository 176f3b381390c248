package journey

// Graph maps preset names to the presets a journey may move to next.
// Transitions only follow edges -- no jumping across the graph.
var Graph = map[string][]string{
	"deep sleep":    {"delta restore", "solfeggio 174"},
	"delta restore": {"deep sleep", "theta dream", "solfeggio 174"},
	"theta dream":   {"delta restore", "research", "solfeggio 285"},
	"research":      {"theta dream", "alpha calm", "solfeggio 396"},
	"alpha calm":    {"research", "beta focus", "solfeggio 528"},
	"beta focus":    {"alpha calm", "gamma insight", "solfeggio 741"},
	"gamma insight": {"beta focus", "solfeggio 963"},
	"solfeggio 174": {"deep sleep", "delta restore", "solfeggio 285"},
	"solfeggio 285": {"solfeggio 174", "theta dream", "solfeggio 396"},
	"solfeggio 396": {"solfeggio 285", "research", "solfeggio 417"},
	"solfeggio 417": {"solfeggio 396", "solfeggio 528"},
	"solfeggio 528": {"solfeggio 417", "alpha calm", "solfeggio 639"},
	"solfeggio 639": {"solfeggio 528", "solfeggio 741"},
	"solfeggio 741": {"solfeggio 639", "beta focus", "solfeggio 852"},
	"solfeggio 852": {"solfeggio 741", "solfeggio 963"},
	"solfeggio 963": {"solfeggio 852", "gamma insight"},
}

// Names returns all preset names in the graph.
func Names() []string {
	names := make([]string, 0, len(Graph))
	for name := range Graph {
		names = append(names, name)
	}
	return names
}

// IsValid checks if a preset exists in the graph.
func IsValid(name string) bool {
	_, ok := Graph[name]
	return ok
}
