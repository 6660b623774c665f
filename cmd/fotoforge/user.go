package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the local account and session",
	}

	var password string
	credentialFlags := func(c *cobra.Command) *cobra.Command {
		c.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
		return c
	}

	cmd.AddCommand(
		credentialFlags(&cobra.Command{
			Use:   "register <email>",
			Short: "Create an account",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(ctx context.Context, a *app, args []string) error {
				if err := a.gate.Register(ctx, args[0], promptPassword(password)); err != nil {
					return err
				}
				successf("Conta criada com sucesso")
				return nil
			}),
		}),
		credentialFlags(&cobra.Command{
			Use:   "login <email>",
			Short: "Start a session",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(ctx context.Context, a *app, args []string) error {
				s, err := a.gate.Login(ctx, args[0], promptPassword(password))
				if err != nil {
					return err
				}
				successf("Logado com sucesso como %s", s.Email)
				return nil
			}),
		}),
		&cobra.Command{
			Use:   "logout",
			Short: "End the current session",
			RunE: withApp(func(ctx context.Context, a *app, args []string) error {
				if err := a.gate.Logout(ctx); err != nil {
					return err
				}
				successf("Sessão encerrada")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the logged-in user",
			RunE: withApp(func(ctx context.Context, a *app, args []string) error {
				s, err := a.gate.Current(ctx)
				if err != nil {
					pterm.Info.Println("Nenhum usuário logado")
					return nil
				}
				pterm.Info.Println(s.Email)
				return nil
			}),
		},
	)
	return cmd
}

func promptPassword(given string) string {
	if given != "" {
		return given
	}
	pw, _ := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Senha")
	return pw
}
