package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"fotoforge/internal/auth"
	"fotoforge/internal/config"
	"fotoforge/internal/database"
	"fotoforge/internal/editor"
	"fotoforge/internal/projects"
	"fotoforge/internal/store"
	"fotoforge/pkg/cache"
	"fotoforge/pkg/utils"
)

var (
	configPath string
	asGuest    bool
)

func main() {
	utils.LoadEnv()

	rootCmd := &cobra.Command{
		Use:           "fotoforge",
		Short:         "Local photo editor: projects, crops and colour filters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default ./config.yaml)")

	rootCmd.AddCommand(
		serveCmd(),
		userCmd(),
		projectCmd(),
		editCmd(),
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// app is the set of collaborators every command works with.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	store    store.Store
	cache    *cache.MemoryCache
	gate     *auth.Gate
	projects *projects.Repository
	loader   *editor.Loader
}

// openApp loads the configuration and opens the local store. ephemeral keeps
// everything in memory.
func openApp(ephemeral bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if ephemeral {
		a.store = store.NewMemoryStore()
	} else {
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.store = store.NewSQLiteStore(db)
	}

	a.cache = cache.New(cache.Options{
		Enabled:   cfg.Cache.Enabled,
		MaxSizeMB: cfg.Cache.MaxCapacity,
		TTL:       config.Duration(cfg.Cache.TTL, 30*time.Minute),
	})
	a.gate = auth.NewGate(a.store)
	a.projects = projects.NewRepository(a.store)
	a.loader = editor.NewLoader(editor.LoaderOptions{
		AssetsDir:    cfg.Image.AssetsDir,
		FetchTimeout: config.Duration(cfg.Image.FetchTimeout, 10*time.Second),
		MaxBytes:     utils.SizeToBytes(cfg.Image.MaxUploadSize, 10<<20),
		Cache:        a.cache,
	})
	return a, nil
}

func (a *app) Close() {
	a.cache.Close()
	if a.db != nil {
		_ = database.Close(a.db)
	}
}

func (a *app) newEngine() *editor.Engine {
	return editor.NewEngine(a.loader, a.cfg.Image.JPEGQuality)
}

// owner resolves the project scope for CLI commands: the logged-in user, or
// the guest partition with --guest.
func (a *app) owner(ctx context.Context) (*string, error) {
	if asGuest {
		return nil, nil
	}
	s, err := a.gate.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: run 'fotoforge user login' or pass --guest", err)
	}
	return projects.Owner(s.Email), nil
}

// withApp adapts a command body that needs an open app.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, args)
	}
}

func printError(err error) {
	var validationErr *auth.ValidationError
	switch {
	case errors.As(err, &validationErr):
		errorf("Preencha email e senha: %v", validationErr)
	case errors.Is(err, auth.ErrInvalidCredentials):
		errorf("Erro ao entrar: credenciais inválidas")
	case errors.Is(err, auth.ErrUserExists):
		errorf("Usuário já cadastrado")
	case errors.Is(err, projects.ErrNotFound):
		errorf("Projeto não encontrado")
	default:
		errorf("%v", err)
	}
}
