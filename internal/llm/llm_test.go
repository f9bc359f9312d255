package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers chat completions with reply and records the last request body.
func fakeServer(t *testing.T, status int, reply string, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = string(body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error": {"message": "model not loaded", "code": 503}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "llava",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(url string) *Client {
	return New(Config{
		Enabled:     true,
		BaseURL:     url + "/v1/",
		Model:       "llava",
		Temperature: 0.2,
		MaxTokens:   200,
		Timeout:     5 * time.Second,
	})
}

func TestDisabledClient(t *testing.T) {
	c := New(Config{Enabled: false})
	assert.Nil(t, c)
	assert.False(t, c.Enabled())

	_, err := c.AnalyzeImage(context.Background(), []byte{0xff, 0xd8}, "")
	assert.ErrorIs(t, err, ErrDisabled)

	desc, err := c.GenerateDescription(context.Background(), "Hammer", "")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, "Hammer", desc)
}

func TestAnalyzeImageJSONReply(t *testing.T) {
	var body string
	srv := fakeServer(t, http.StatusOK,
		"Sure! ```json\n{\"description\": \"A red claw hammer\", \"tags\": [\"hammer\", \" Werkzeug \", \"café\", \"hammer\"]}\n```", &body)

	a, err := testClient(srv.URL).AnalyzeImage(context.Background(), []byte("jpeg-bytes"), "")
	require.NoError(t, err)

	assert.Equal(t, "A red claw hammer", a.Description)
	assert.Equal(t, []string{"hammer", "Werkzeug", "cafe"}, a.Tags)
	assert.Equal(t, 0.8, a.Confidence)

	assert.Contains(t, body, `"model":"llava"`)
	assert.Contains(t, body, "data:image/jpeg;base64,")
	assert.Contains(t, body, "Suggested category and tags")
}

func TestAnalyzeImagePlainReply(t *testing.T) {
	srv := fakeServer(t, http.StatusOK, "The image shows a yellow cordless drill with a battery pack.", nil)

	a, err := testClient(srv.URL).AnalyzeImage(context.Background(), []byte("jpeg-bytes"), "What is this?")
	require.NoError(t, err)

	assert.Equal(t, "The image shows a yellow cordless drill with a battery pack.", a.Description)
	assert.Equal(t, []string{"yellow", "cordless", "drill", "battery", "pack"}, a.Tags)
}

func TestAnalyzeImageServerError(t *testing.T) {
	srv := fakeServer(t, http.StatusServiceUnavailable, "", nil)

	_, err := testClient(srv.URL).AnalyzeImage(context.Background(), []byte("jpeg-bytes"), "")
	assert.Error(t, err)
}

func TestGenerateDescription(t *testing.T) {
	var body string
	srv := fakeServer(t, http.StatusOK, "  A sturdy steel hammer for general carpentry.  ", &body)

	desc, err := testClient(srv.URL).GenerateDescription(context.Background(), "Hammer", "old one")
	require.NoError(t, err)
	assert.Equal(t, "A sturdy steel hammer for general carpentry.", desc)
	assert.Contains(t, body, "inventory item named 'Hammer' with this user description: old one")
}

func TestGenerateDescriptionFallback(t *testing.T) {
	srv := fakeServer(t, http.StatusOK, "   ", nil)
	desc, err := testClient(srv.URL).GenerateDescription(context.Background(), "Hammer", "old one")
	require.NoError(t, err)
	assert.Equal(t, "old one", desc)

	failing := fakeServer(t, http.StatusInternalServerError, "", nil)
	desc, err = testClient(failing.URL).GenerateDescription(context.Background(), "Hammer", "")
	assert.Error(t, err)
	assert.Equal(t, "Hammer", desc)
}

func TestExtractTags(t *testing.T) {
	tags := ExtractTags("Tools, tools and MORE tools: a wrench, the pliers! With screwdriver.")
	assert.Equal(t, []string{"tools", "more", "wrench", "pliers", "screwdriver"}, tags)

	long := strings.Repeat("word ", 3) + "alpha bravo charlie delta echoes foxtrot golfs hotel india juliet kilos"
	assert.Len(t, ExtractTags(long), MaxTags)
}

func TestCleanTags(t *testing.T) {
	tags := CleanTags([]string{"  ", "Äpfel", strings.Repeat("x", 33), "ok", "ok"})
	assert.Equal(t, []string{"Apfel", "ok"}, tags)
}
