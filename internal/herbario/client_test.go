package herbario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herbario-cl/herbario/internal/config"
	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func TestListSpeciesPagination(t *testing.T) {
	pages := map[string][]SpeciesRef{
		"1": {{ID: 1, ScientificName: "Araucaria araucana"}, {ID: 2, ScientificName: "Nothofagus obliqua"}},
		"2": {{ID: 3, ScientificName: "Quillaja saponaria"}},
		"3": {},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/species_list/", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("format"))
		page := r.URL.Query().Get("page")
		_ = json.NewEncoder(w).Encode(speciesListPage{Results: pages[page]})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastPolicy(), 1)
	species, err := c.ListSpecies(context.Background())
	require.NoError(t, err)
	require.Len(t, species, 3)
	assert.Equal(t, "Araucaria araucana", species[0].ScientificName)
	assert.Equal(t, 3, species[2].ID)
}

func TestListSpeciesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(speciesListPage{Results: nil})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastPolicy(), 1)
	species, err := c.ListSpecies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, species)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListSpeciesFailsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such page", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastPolicy(), 1)
	_, err := c.ListSpecies(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNetwork))
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestGetSpecies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/species/42/", r.URL.Path)
		require.Equal(t, "en", r.URL.Query().Get("lang"))
		fmt.Fprint(w, `{
			"id": 42,
			"scientific_name": "Quillaja saponaria",
			"habit": "Tree",
			"status": "Native",
			"conservation_state": ["Least Concern (LC)"],
			"region": [{"name": "Maule Region"}, {"name": "Coquimbo Region"}]
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastPolicy(), 1)
	detail, err := c.GetSpecies(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Quillaja saponaria", detail.ScientificName)
	assert.Equal(t, "Tree", detail.Habit)
	assert.Len(t, detail.Regions, 2)
	assert.Equal(t, []string{"Least Concern (LC)"}, detail.ConservationState)
}

func TestGetSpeciesDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastPolicy(), 1)
	_, err := c.GetSpecies(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))
}

func TestBaseURLWithPathPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/species_list/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(speciesListPage{Results: nil})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/v1/", fastPolicy(), 1)
	_, err := c.ListSpecies(context.Background())
	require.NoError(t, err)
}
