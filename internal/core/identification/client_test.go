package identification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

type seen struct {
	calls     int
	path      string
	auth      string
	imagePart []byte
}

func newTaxonServer(t *testing.T, status int, body string) (*httptest.Server, *seen) {
	t.Helper()
	s := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls++
		s.path = r.URL.Path
		s.auth = r.Header.Get("Authorization")
		if f, _, err := r.FormFile("image"); err == nil {
			s.imagePart, _ = io.ReadAll(f)
			f.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, s
}

func newTestClient(t *testing.T, url, token, locale string) *Client {
	settings := config.NewMemorySettings(config.Settings{
		Identification: config.IdentificationSettings{APIURL: url + "/", Token: token},
		Locale:         locale,
	})
	return NewClient(settings, nil, zaptest.NewLogger(t), 0)
}

func TestIdentify_TopResult(t *testing.T) {
	srv, s := newTaxonServer(t, http.StatusOK, `{"results":[
		{"taxon":{"name":"Ficus lyrata","preferred_common_name":"Fiddle-leaf fig"},"score":0.92},
		{"taxon":{"name":"Ficus elastica","preferred_common_name":"Rubber plant"},"score":0.05}
	]}`)

	out := newTestClient(t, srv.URL, "inat-token", "en").Identify(context.Background(), jpeg)

	assert.Equal(t, model.StepOK, out.Status)
	assert.NoError(t, out.Err)
	assert.Equal(t, "Fiddle-leaf fig", out.Candidate.CommonName)
	assert.Equal(t, "Ficus lyrata", out.Candidate.ScientificName)
	assert.Equal(t, 0.92, out.Candidate.ConfidenceScore)

	assert.Equal(t, 1, s.calls)
	assert.Equal(t, "/v1/identifications", s.path)
	assert.Equal(t, "Bearer inat-token", s.auth)
	assert.Equal(t, jpeg, s.imagePart)
}

func TestIdentify_CommonNameFallsBackToScientific(t *testing.T) {
	srv, _ := newTaxonServer(t, http.StatusOK, `{"results":[{"taxon":{"name":"Monstera deliciosa","preferred_common_name":null},"score":0.6}]}`)

	out := newTestClient(t, srv.URL, "", "en").Identify(context.Background(), jpeg)

	assert.Equal(t, "Monstera deliciosa", out.Candidate.CommonName)
	assert.Equal(t, "Monstera deliciosa", out.Candidate.ScientificName)
}

func TestIdentify_EmptyResults(t *testing.T) {
	srv, _ := newTaxonServer(t, http.StatusOK, `{"results":[]}`)

	out := newTestClient(t, srv.URL, "", "en").Identify(context.Background(), jpeg)

	assert.Equal(t, model.StepDegraded, out.Status)
	assert.Error(t, out.Err)
	assert.Equal(t, "unknown species", out.Candidate.CommonName)
	assert.Equal(t, "Unknown species", out.Candidate.ScientificName)
	assert.Equal(t, 0.0, out.Candidate.ConfidenceScore)
}

func TestIdentify_HTTPError(t *testing.T) {
	srv, _ := newTaxonServer(t, http.StatusUnauthorized, `{"error":"unauthorized"}`)

	out := newTestClient(t, srv.URL, "bad", "en").Identify(context.Background(), jpeg)

	assert.Equal(t, model.StepDegraded, out.Status)
	assert.Equal(t, "unknown species", out.Candidate.CommonName)
	assert.Equal(t, 0.0, out.Candidate.ConfidenceScore)
}

func TestIdentify_TransportErrorLocalized(t *testing.T) {
	srv, _ := newTaxonServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	out := newTestClient(t, url, "", "zh").Identify(context.Background(), jpeg)

	assert.Equal(t, model.StepDegraded, out.Status)
	assert.Equal(t, "未知植物", out.Candidate.CommonName)
	assert.Equal(t, "Unknown species", out.Candidate.ScientificName)
}

func TestIdentify_ClampsScore(t *testing.T) {
	srv, _ := newTaxonServer(t, http.StatusOK, `{"results":[{"taxon":{"name":"Ficus lyrata"},"score":1.7}]}`)

	out := newTestClient(t, srv.URL, "", "en").Identify(context.Background(), jpeg)

	assert.Equal(t, model.StepOK, out.Status)
	assert.Equal(t, 1.0, out.Candidate.ConfidenceScore)
}

func TestIdentify_MalformedBody(t *testing.T) {
	srv, _ := newTaxonServer(t, http.StatusOK, `not json`)

	out := newTestClient(t, srv.URL, "", "en").Identify(context.Background(), jpeg)

	require.Error(t, out.Err)
	assert.Equal(t, model.StepDegraded, out.Status)
}
