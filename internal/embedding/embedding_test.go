package embedding

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vec := []float64{0.1, -2.5, 3.14159, 0, 1e-9}
	blob := Encode(vec)
	if len(blob) != 8*len(vec) {
		t.Fatalf("blob length %d, want %d", len(blob), 8*len(vec))
	}
	got := Decode(blob)
	if len(got) != len(vec) {
		t.Fatalf("decoded length %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d: got %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	if Decode(nil) != nil {
		t.Error("nil blob should decode to nil")
	}
	if Decode([]byte{}) != nil {
		t.Error("empty blob should decode to nil")
	}
	if Decode([]byte{1, 2, 3}) != nil {
		t.Error("misaligned blob should decode to nil")
	}
}

func TestEncodeEmpty(t *testing.T) {
	if Encode(nil) != nil {
		t.Error("empty vector should encode to nil")
	}
}

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0.0},
		{"zero norm", []float64{0, 0}, []float64{1, 2}, 0.0},
		{"empty", nil, nil, 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Cosine(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "nomic-embed-text:latest"},
				{"name": "llama3:8b"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nomic-embed-text")
	if !c.Available() {
		t.Error("model with tag suffix should match base name")
	}

	missing := NewClient(srv.URL, "all-minilm")
	if missing.Available() {
		t.Error("unpulled model should not be available")
	}
}

func TestAvailableDownServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "nomic-embed-text")
	if c.Available() {
		t.Error("closed server should not be available")
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "nomic-embed-text" || req["input"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float64{{0.25, -0.5, 0.75}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nomic-embed-text")
	vec, err := c.Embed("hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []float64{0.25, -0.5, 0.75}
	if len(vec) != len(want) {
		t.Fatalf("got %d components, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("component %d: got %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestEmbedErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()
		c := NewClient(srv.URL, "nomic-embed-text")
		if _, err := c.Embed("hello"); err == nil {
			t.Error("expected error on non-200 response")
		}
	})

	t.Run("empty embedding", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float64{}})
		}))
		defer srv.Close()
		c := NewClient(srv.URL, "nomic-embed-text")
		if _, err := c.Embed("hello"); err == nil {
			t.Error("expected error on empty embeddings array")
		}
	})
}

func TestNullEmbedder(t *testing.T) {
	var e Embedder = &NullEmbedder{}
	if e.Available() {
		t.Error("null embedder should never be available")
	}
	vec, err := e.Embed("anything")
	if err != nil || vec != nil {
		t.Errorf("null embedder should return nil, nil; got %v, %v", vec, err)
	}
}

func TestClientDefaults(t *testing.T) {
	c := NewClient("", "")
	if c.Endpoint() != DefaultEndpoint {
		t.Errorf("endpoint default: got %q", c.Endpoint())
	}
	if c.Model() != DefaultModel {
		t.Errorf("model default: got %q", c.Model())
	}
}
