package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"fotoforge/internal/auth"
	"fotoforge/internal/projects"
	"fotoforge/pkg/generator"
)

const (
	seedImageDir  = "randomImages"
	seedImageSize = 960
	seedWorkers   = 3
)

// mockProjects are the demo cards every new account starts with.
var mockProjects = []projects.Project{
	{Name: "Retrato de Verão", ImageURL: "/randomImages/01.jpg", LastEdited: "2 dias atrás"},
	{Name: "Paisagem Urbana Noturna", ImageURL: "/randomImages/02.jpg", LastEdited: "5 dias atrás"},
	{Name: "Ensaio de Produto", ImageURL: "/randomImages/03.jpg", LastEdited: "1 semana atrás"},
	{Name: "Casamento na Praia", ImageURL: "/randomImages/04.jpg", LastEdited: "2 semanas atrás"},
	{Name: "Festa de Aniversário", ImageURL: "/randomImages/05.jpg", LastEdited: "1 mês atrás"},
}

type seedResult struct {
	Path    string
	Created bool
	Err     error
}

func seedCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo account with the sample projects and their images",
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			return runSeed(ctx, a, email, password)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "demo@fotoforge.local", "Demo account email")
	cmd.Flags().StringVar(&password, "password", "demo1234", "Demo account password")
	return cmd
}

func runSeed(ctx context.Context, a *app, email, password string) error {
	pterm.DefaultHeader.WithFullWidth().WithBackgroundStyle(pterm.NewStyle(pterm.BgLightMagenta)).WithTextStyle(pterm.NewStyle(pterm.FgBlack)).Println("FOTOFORGE DEMO SEEDER")
	pterm.Println()

	assets := filepath.Join(a.cfg.Image.AssetsDir, seedImageDir)
	data := pterm.TableData{
		{"Assets Dir", color.New(color.FgCyan).Sprint(assets)},
		{"Projects", color.New(color.FgYellow).Sprintf("%d", len(mockProjects))},
		{"Account", color.New(color.FgYellow).Sprint(email)},
	}
	_ = pterm.DefaultTable.WithBoxed().WithData(data).Render()
	pterm.Println()

	if err := os.MkdirAll(assets, 0o755); err != nil {
		return err
	}

	results := seedImages(a.cfg.Image.AssetsDir, a.cfg.Image.JPEGQuality)
	for _, res := range results {
		if res.Err != nil {
			pterm.Warning.Printfln("%s: %v", res.Path, res.Err)
		}
	}

	err := a.gate.Register(ctx, email, password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		pterm.Info.Printfln("Account %s already exists", email)
	case err != nil:
		return err
	default:
		successf("Account %s created", email)
	}

	owner := projects.Owner(email)
	if existing := a.projects.ListForOwner(ctx, owner); len(existing) > 0 {
		pterm.Info.Printfln("%s already has %d projects; leaving them untouched", email, len(existing))
		return nil
	}

	seeded, err := a.projects.Import(ctx, owner, mockProjects)
	if err != nil {
		return err
	}
	successf("Seeded %d projects for %s", len(seeded), email)
	return nil
}

// seedImages renders a placeholder for every mock project image that does
// not exist yet.
func seedImages(assetsDir string, quality int) []seedResult {
	bar, _ := pterm.DefaultProgressbar.
		WithTotal(len(mockProjects)).
		WithTitle("Rendering images...").
		WithShowCount(true).
		Start()

	jobs := make(chan projects.Project, len(mockProjects))
	results := make(chan seedResult, len(mockProjects))

	var wg sync.WaitGroup
	for w := 0; w < seedWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				results <- renderSeedImage(assetsDir, p, quality)
			}
		}()
	}

	for _, p := range mockProjects {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]seedResult, 0, len(mockProjects))
	created := 0
	for res := range results {
		bar.Increment()
		if res.Created {
			created++
		}
		out = append(out, res)
	}
	bar.Stop()

	pterm.Info.Printfln("%d images rendered, %d already present", created, len(out)-created)
	return out
}

func renderSeedImage(assetsDir string, p projects.Project, quality int) seedResult {
	path := filepath.Join(assetsDir, filepath.FromSlash(strings.TrimPrefix(p.ImageURL, "/")))
	if _, err := os.Stat(path); err == nil {
		return seedResult{Path: path}
	}

	img := generator.Placeholder(p.Name, seedImageSize)
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return seedResult{Path: path, Err: fmt.Errorf("save failed: %w", err)}
	}
	return seedResult{Path: path, Created: true}
}
