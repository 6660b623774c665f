package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/qeesung/image2ascii/convert"
	"github.com/spf13/cobra"

	"fotoforge/internal/editor"
	"fotoforge/internal/projects"
	"fotoforge/pkg/utils"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "List, create and export projects",
	}
	cmd.PersistentFlags().BoolVar(&asGuest, "guest", false, "Use the guest partition instead of the logged-in user")

	var name string
	create := &cobra.Command{
		Use:   "create <file>",
		Short: "Create a project from an image file",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runProjectCreate(&name)),
	}
	create.Flags().StringVarP(&name, "name", "n", "", "Project name (default: file name)")

	var width int
	preview := &cobra.Command{
		Use:   "preview <id>",
		Short: "Print the project image as ASCII art",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runProjectPreview(&width)),
	}
	preview.Flags().IntVarP(&width, "width", "w", 60, "Columns")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List projects, newest first",
			RunE:  withApp(runProjectList),
		},
		create,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a project",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runProjectDelete),
		},
		preview,
		&cobra.Command{
			Use:   "export <id> [dir]",
			Short: "Write the project image as a JPEG file",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  withApp(runProjectExport),
		},
	)
	return cmd
}

func runProjectList(ctx context.Context, a *app, args []string) error {
	owner, err := a.owner(ctx)
	if err != nil {
		return err
	}

	list := a.projects.ListForOwner(ctx, owner)
	if len(list) == 0 {
		pterm.Info.Printfln("Nenhum projeto para %s", projects.OwnerLabel(owner))
		return nil
	}

	data := pterm.TableData{{"ID", "Nome", "Editado", "Origem"}}
	for _, p := range list {
		origin := p.ImageURL
		if p.ImageData != "" {
			origin = "editada"
		}
		data = append(data, []string{string(p.ID), p.Name, p.LastEdited, origin})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

func runProjectCreate(name *string) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		owner, err := a.owner(ctx)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		mime, ok := utils.DetectImageType(data)
		if !ok {
			return fmt.Errorf("%s is not a supported image", args[0])
		}
		if _, err := editor.DecodeBytes(data, args[0]); err != nil {
			return err
		}

		projectName := strings.TrimSpace(*name)
		if projectName == "" {
			base := filepath.Base(args[0])
			projectName = strings.TrimSuffix(base, filepath.Ext(base))
		}

		p, err := a.projects.Create(ctx, owner, projectName, editor.EncodeDataURL(mime, data))
		if err != nil {
			return err
		}
		successf("Projeto criado: %s (%s)", p.Name, p.ID)
		return nil
	}
}

func runProjectDelete(ctx context.Context, a *app, args []string) error {
	owner, err := a.owner(ctx)
	if err != nil {
		return err
	}
	if err := a.projects.DeleteOne(ctx, owner, projects.ID(args[0])); err != nil {
		return err
	}
	successf("Projeto removido")
	return nil
}

func runProjectPreview(width *int) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		owner, err := a.owner(ctx)
		if err != nil {
			return err
		}
		p, err := a.projects.Get(ctx, owner, projects.ID(args[0]))
		if err != nil {
			return err
		}

		decoded, err := a.loader.Load(ctx, p.DisplaySource())
		if err != nil {
			return err
		}

		opts := convert.DefaultOptions
		opts.FixedWidth = *width
		// Terminal cells are about twice as tall as wide.
		opts.FixedHeight = max(1, *width*decoded.Height()/decoded.Width()/2)

		fmt.Print(convert.NewImageConverter().Image2ASCIIString(decoded.Image, &opts))
		pterm.Info.Printfln("%s · %dx%d · %s", p.Name, decoded.Width(), decoded.Height(), decoded.MIME)
		return nil
	}
}

func runProjectExport(ctx context.Context, a *app, args []string) error {
	owner, err := a.owner(ctx)
	if err != nil {
		return err
	}
	p, err := a.projects.Get(ctx, owner, projects.ID(args[0]))
	if err != nil {
		return err
	}

	engine := a.newEngine()
	if _, _, err := engine.LoadSource(ctx, p.DisplaySource()); err != nil {
		return err
	}
	data, err := engine.JPEG()
	if err != nil {
		return err
	}

	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, utils.DownloadName(p.Name, string(p.ID)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	successf("Exportado para %s (%s)", path, utils.FormatBytes(int64(len(data))))
	return nil
}
