package main

import (
	"bufio"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

func (c *cli) loginCmd() *cobra.Command {
	var creds auth.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creds.Password == "" {
				pw, err := c.readLine("Senha: ")
				if err != nil {
					return err
				}
				creds.Password = pw
			}
			sess, err := c.app.Auth.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			role := "cliente"
			if sess.Seller {
				role = "vendedor"
			}
			c.say("Login realizado com sucesso! Usuário %s (%s).", sess.UserID, role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var reg auth.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Password == "" {
				pw, err := c.readLine("Senha: ")
				if err != nil {
					return err
				}
				reg.Password = pw
			}
			msg, err := c.app.Auth.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			c.say("%s", msg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reg.Name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Password, at least 6 characters (prompted when empty)")
	cmd.Flags().BoolVar(&reg.Seller, "seller", false, "Register as a seller")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			c.say("Sessão encerrada.")
			return nil
		},
	}
}

func (c *cli) deactivateCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Delete the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to deactivate without --yes")
			}
			if err := c.app.Auth.Deactivate(cmd.Context()); err != nil {
				return err
			}
			c.say("Conta desativada.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm account deactivation")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and probe the API and session store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if sess, err := c.app.Auth.Current(ctx); err == nil {
				c.say("Conectado como %s (vendedor: %t)", sess.UserID, sess.Seller)
			} else {
				c.say("Não conectado.")
			}

			report := c.app.Health().Run(ctx)
			if err := report.WriteJSON(c.out); err != nil {
				return err
			}
			if !report.Healthy() {
				return errors.Errorf("status %s", report.Status)
			}
			return nil
		},
	}
}

func (c *cli) readLine(prompt string) (string, error) {
	_, _ = c.errOut.Write([]byte(prompt))
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
