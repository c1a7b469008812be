package dataset

import (
	"github.com/herbario-cl/herbario/internal/herbario"
)

// conservationStates orders conservation states from least to most severe.
// The first entry doubles as the default when a record carries none.
var conservationStates = []string{
	"Not Evaluated (NE)",
	"Data Deficient (DD)",
	"Least Concern (LC)",
	"Conservation Dependent (CD)",
	"Near Threatened (NT)",
	"Almost Threatened (NT)",
	"Vulnerable (VU)",
	"Endangered (EN)",
	"Critically Endangered (CR)",
	"Extinct in the Wild (EW)",
	"Extinct (EX)",
}

// regionColumn maps the API's English region names to the local column names
// used in the exported table. Order here is the column order.
type regionColumn struct {
	apiName   string
	localName string
}

var regionColumns = []regionColumn{
	{"Araucania Region", "Araucanía"},
	{"Maule Region", "Maule"},
	{"Atacama Region", "Atacama"},
	{"Antofagasta Region", "Antofagasta"},
	{"Juan Fernández Archipelago", "Juan Fernández"},
	{"Tarapaca Region", "Tarapacá"},
	{"Santiago Metropolitan Region", "Metropolitana"},
	{"Liberator General Bernardo O'Higgins Region", "Libertador Bernardo O'Higgins"},
	{"Arica and Parinacota Region", "Arica y Parinacota"},
	{"River Region", "Los Ríos"},
	{"Ñuble Region", "Ñuble"},
	{"Coquimbo Region", "Coquimbo"},
	{"Los Lagos Region", "Los Lagos"},
	{"Magallanes and Chilean Antarctic Region", "Magallanes"},
	{"Bio Bio Region", "Bío-Bío"},
	{"Valparaiso Region", "Valparaíso"},
	{"Region of Aysén del General Carlos Ibáñez del Campo", "Aysén"},
}

// Record is one simplified species row. Regions holds a presence flag per
// region, in regionColumns order.
type Record struct {
	ID                int
	ScientificName    string
	Habit             string
	Status            string
	ConservationState string
	Regions           []int
}

// RegionNames returns the local region column names in export order.
func RegionNames() []string {
	names := make([]string, len(regionColumns))
	for i, rc := range regionColumns {
		names[i] = rc.localName
	}
	return names
}

// stateRank returns the severity rank of a conservation state; unknown states
// rank after every known one so they are never selected over a known state.
func stateRank(state string) int {
	for i, s := range conservationStates {
		if s == state {
			return i
		}
	}
	return len(conservationStates)
}

// selectConservationState picks the lowest-ranked state a record carries,
// defaulting to "Not Evaluated (NE)" for empty lists.
func selectConservationState(states []string) string {
	selected := conservationStates[0]
	best := len(conservationStates) + 1
	for _, s := range states {
		if r := stateRank(s); r < best {
			best = r
			selected = s
		}
	}
	return selected
}

// Simplify reduces detail records into export rows.
func Simplify(details []herbario.SpeciesDetail) []Record {
	records := make([]Record, 0, len(details))
	for _, d := range details {
		present := make(map[string]bool, len(d.Regions))
		for _, r := range d.Regions {
			present[r.Name] = true
		}

		regions := make([]int, len(regionColumns))
		for i, rc := range regionColumns {
			if present[rc.apiName] {
				regions[i] = 1
			}
		}

		records = append(records, Record{
			ID:                d.ID,
			ScientificName:    d.ScientificName,
			Habit:             d.Habit,
			Status:            d.Status,
			ConservationState: selectConservationState(d.ConservationState),
			Regions:           regions,
		})
	}
	return records
}
