package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotoforge/internal/auth"
	"fotoforge/internal/config"
	"fotoforge/internal/projects"
	"fotoforge/internal/store"
	"fotoforge/pkg/logger"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	pterm.DisableOutput()
	logger.SetOutput(&strings.Builder{})
	t.Cleanup(func() {
		pterm.EnableOutput()
		logger.SetOutput(os.Stdout)
	})

	mem := store.NewMemoryStore()
	return &app{
		cfg: &config.Config{
			Image: config.ImageConfig{AssetsDir: t.TempDir(), JPEGQuality: 92},
		},
		store:    mem,
		gate:     auth.NewGate(mem),
		projects: projects.NewRepository(mem),
	}
}

func TestSeed_TwoAccountsNeverShareIDs(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, runSeed(ctx, a, "ana@example.com", "demo1234"))
	require.NoError(t, runSeed(ctx, a, "bia@example.com", "demo1234"))

	var all []projects.Project
	require.True(t, store.GetInto(ctx, a.store, store.KeyProjects, &all))
	require.Len(t, all, 2*len(mockProjects))

	seen := make(map[projects.ID]bool)
	for _, p := range all {
		assert.False(t, seen[p.ID], "id %s used twice", p.ID)
		seen[p.ID] = true
	}

	ana := a.projects.ListForOwner(ctx, projects.Owner("ana@example.com"))
	require.Len(t, ana, len(mockProjects))
	assert.Equal(t, "Retrato de Verão", ana[0].Name)
	assert.Equal(t, "/randomImages/01.jpg", ana[0].ImageURL)

	for i := 1; i <= len(mockProjects); i++ {
		_, err := os.Stat(filepath.Join(a.cfg.Image.AssetsDir, "randomImages", "0"+string(rune('0'+i))+".jpg"))
		assert.NoError(t, err)
	}
}

func TestSeed_RerunLeavesExistingProjects(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, runSeed(ctx, a, "ana@example.com", "demo1234"))
	first := a.projects.ListForOwner(ctx, projects.Owner("ana@example.com"))

	require.NoError(t, runSeed(ctx, a, "ana@example.com", "demo1234"))
	assert.Equal(t, first, a.projects.ListForOwner(ctx, projects.Owner("ana@example.com")))
	assert.Equal(t, 1, a.gate.UserCount(ctx))
}
