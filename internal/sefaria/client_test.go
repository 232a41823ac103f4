package sefaria

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenText(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"string", "In the beginning", "In the beginning"},
		{"flat array", []interface{}{"a", "b", "c"}, "a b c"},
		{"nested array", []interface{}{"a", []interface{}{"b", "c"}, "d"}, "a b c d"},
		{"empty leaves dropped", []interface{}{"a", "", "  ", "b"}, "a b"},
		{"nil", nil, ""},
		{"number ignored", []interface{}{"a", 42.0, "b"}, "a b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FlattenText(tc.in))
		})
	}
}

func TestLookupFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "/api/texts/")
		assert.Equal(t, "0", r.URL.Query().Get("context"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"ref":        "Berakhot 55a",
			"heRef":      "ברכות נ״ה א",
			"text":       []interface{}{"One who sees a river in a dream", "should rise early"},
			"he":         "הרואה נהר בחלום",
			"book":       "Berakhot",
			"categories": []string{"Talmud", "Bavli"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "https://www.sefaria.org")
	result := client.Lookup(t.Context(), "Berakhot 55a")

	require.True(t, result.Found)
	assert.Equal(t, "Berakhot 55a", result.Ref)
	assert.Equal(t, "One who sees a river in a dream should rise early", result.Text)
	assert.Equal(t, "הרואה נהר בחלום", result.He)
	assert.Equal(t, "https://www.sefaria.org/Berakhot_55a", result.URL)
	assert.Equal(t, []string{"Talmud", "Bavli"}, result.Categories)
}

func TestLookupDegradesOnError(t *testing.T) {
	t.Run("api error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"error": "Could not find title in reference"})
		}))
		defer server.Close()

		result := NewClient(server.URL, "").Lookup(t.Context(), "Not A Book 1:1")
		assert.False(t, result.Found)
	})

	t.Run("http 500", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		result := NewClient(server.URL, "").Lookup(t.Context(), "Berakhot 55a")
		assert.False(t, result.Found)
	})

	t.Run("server unreachable", func(t *testing.T) {
		result := NewClient("http://127.0.0.1:1", "").Lookup(t.Context(), "Berakhot 55a")
		assert.False(t, result.Found)
	})
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search-wrapper", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "text", payload["type"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"hits": []interface{}{
					map[string]interface{}{
						"_score": 12.5,
						"_source": map[string]interface{}{
							"ref":   "Berakhot 55a",
							"heRef": "ברכות נ״ה א",
							"exact": "One who sees a river in a dream",
						},
					},
					map[string]interface{}{
						"_score":  3.1,
						"_source": map[string]interface{}{"ref": ""},
					},
				},
			},
		})
	}))
	defer server.Close()

	hits := NewClient(server.URL, "").Search(t.Context(), "river in a dream", 3)

	// The refless hit is skipped
	require.Len(t, hits, 1)
	assert.Equal(t, "Berakhot 55a", hits[0].Ref)
	assert.Equal(t, "One who sees a river in a dream", hits[0].Text)
	assert.Equal(t, 12.5, hits[0].Score)
	assert.Equal(t, server.URL+"/Berakhot_55a", hits[0].URL)
}

func TestSearchDegradesOnFailure(t *testing.T) {
	hits := NewClient("http://127.0.0.1:1", "").Search(t.Context(), "anything", 3)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestRefURL(t *testing.T) {
	client := NewClient("https://www.sefaria.org", "")
	assert.Equal(t, "https://www.sefaria.org/Rashi_on_Genesis_1:1", client.RefURL("Rashi on Genesis 1:1"))
}
