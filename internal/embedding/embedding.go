package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the local Ollama API address.
const DefaultEndpoint = "http://localhost:11434"

// DefaultModel is the embedding model pulled by default.
const DefaultModel = "nomic-embed-text"

// requestTimeout bounds every embedding call. The write path runs inline
// with the caller, so a slow or absent provider must fail fast.
const requestTimeout = 2 * time.Second

// Embedder generates vector embeddings for text
type Embedder interface {
	Available() bool
	Embed(text string) ([]float64, error)
	Model() string
}

// Client talks to an Ollama instance
type Client struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewClient creates an Ollama client. Empty arguments fall back to the
// local defaults.
func NewClient(endpoint, model string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Model returns the configured embedding model name.
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the configured API address.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Available probes the provider and checks that the configured model is
// pulled. Tag suffixes are ignored, so "nomic-embed-text:latest" satisfies
// "nomic-embed-text".
func (c *Client) Available() bool {
	resp, err := c.client.Get(c.endpoint + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	want := strings.SplitN(c.model, ":", 2)[0]
	for _, m := range tags.Models {
		if strings.SplitN(m.Name, ":", 2)[0] == want {
			return true
		}
	}
	return false
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed generates an embedding for a single text
func (c *Client) Embed(text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Post(c.endpoint+"/api/embed", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error: %s", strings.TrimSpace(string(msg)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama returned no embedding")
	}
	return result.Embeddings[0], nil
}

// UnavailableMessage explains how to get embeddings working.
func (c *Client) UnavailableMessage() string {
	return fmt.Sprintf(
		"Ollama is not reachable at %s. Install it from https://ollama.com and run: ollama pull %s",
		c.endpoint, c.model)
}

// NullEmbedder is a no-op embedder for when Ollama isn't available
type NullEmbedder struct{}

func (e *NullEmbedder) Available() bool { return false }

func (e *NullEmbedder) Embed(text string) ([]float64, error) {
	return nil, nil
}

func (e *NullEmbedder) Model() string { return "" }
