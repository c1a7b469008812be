package herbario

// SpeciesRef identifies one species in the species list endpoint.
type SpeciesRef struct {
	ID             int    `json:"id"`
	ScientificName string `json:"scientific_name"`
}

// speciesListPage is one page of the species_list endpoint.
type speciesListPage struct {
	Count   int          `json:"count"`
	Results []SpeciesRef `json:"results"`
}

// Region is one distribution region of a species detail record.
type Region struct {
	Name string `json:"name"`
}

// SpeciesDetail is the per-species record from the species endpoint. Only the
// fields the dataset needs are decoded.
type SpeciesDetail struct {
	ID                int      `json:"id"`
	ScientificName    string   `json:"scientific_name"`
	Habit             string   `json:"habit"`
	Status            string   `json:"status"`
	ConservationState []string `json:"conservation_state"`
	Regions           []Region `json:"region"`
}
