package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core/model"
)

func TestBuild_FileBackendEndToEnd(t *testing.T) {
	taxon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"taxon":{"name":"Ficus lyrata","preferred_common_name":"Fiddle-leaf fig"},"score":0.92}]}`))
	}))
	defer taxon.Close()

	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	ctx := context.Background()
	a, err := Build(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NoError(t, a.Settings.SaveIdentification(ctx, config.IdentificationSettings{APIURL: taxon.URL}))

	result, err := a.Pipeline.Run(ctx, []byte{0xff, 0xd8, 0xff, 0xe0})
	require.NoError(t, err)
	assert.Equal(t, "Fiddle-leaf fig", result.Species)
	assert.Equal(t, model.StepNotConfigured, result.Steps.Health)
	assert.Equal(t, model.StepNotConfigured, result.Steps.Advice)
	assert.Equal(t, filepath.Join(cfg.Storage.DataDir, ImagesDir), filepath.Dir(result.ImageReference))

	_, err = a.Pipeline.Commit(ctx, *result)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.Storage.DataDir, PlantsFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Storage.DataDir, SettingsFile))
	assert.NoError(t, err)

	plants, err := a.Pipeline.ListPlants(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "Ficus lyrata", plants[0].ScientificName)

	assert.NotNil(t, a.Server())
}

func TestWatchSettings_LogsChanges(t *testing.T) {
	observed, logs := observer.New(zap.InfoLevel)

	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := Build(ctx, cfg, zap.New(observed))
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NoError(t, a.WatchSettings(ctx))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("Settings loaded").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Settings.SaveLocale(ctx, "zh"))
	require.Eventually(t, func() bool {
		for _, e := range logs.FilterMessage("Settings changed").All() {
			if e.ContextMap()["locale"] == "zh" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
