package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type credentialsPrompt struct {
	email string
}

func (p *credentialsPrompt) read(a *app, cmd *cobra.Command) (string, string, error) {
	email := p.email
	var err error
	if email == "" {
		email, err = a.promptForInput(cmd, "Email: ")
		if err != nil {
			return "", "", err
		}
	}
	password, err := a.promptForPassword(cmd, "Password: ")
	if err != nil {
		return "", "", err
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password cannot be empty")
	}
	return email, password, nil
}

func loginCmd(a *app) *cobra.Command {
	prompt := credentialsPrompt{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password, err := prompt.read(a, cmd)
			if err != nil {
				return err
			}
			_, err = a.services.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			cmd.Println("Login was successful.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt.email, "email", "e", "", "The email to sign in with")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	prompt := credentialsPrompt{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password, err := prompt.read(a, cmd)
			if err != nil {
				return err
			}
			_, err = a.services.Auth.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			cmd.Println("The account was created and you are signed in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt.email, "email", "e", "", "The email of the new account")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.services.Auth.Logout(cmd.Context())
			if err != nil {
				cmd.PrintErrln("Warning: the backend did not confirm the logout:", err)
			}
			cmd.Println("You are signed out.")
			return nil
		},
	}
}

type statusOutput struct {
	SignedIn        bool       `yaml:"signed_in"`
	AccessExpiresAt *time.Time `yaml:"access_expires_at,omitempty"`
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you are signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := a.api.Credentials(cmd.Context())
			if err != nil {
				return err
			}
			status := statusOutput{SignedIn: !pair.Empty()}
			if expiresAt, err := pair.AccessExpiry(); err == nil {
				status.AccessExpiresAt = &expiresAt
			}
			if a.output == outputYAML {
				return printYAML(cmd.OutOrStdout(), status)
			}
			if !status.SignedIn {
				cmd.Println("You are not signed in.")
				return nil
			}
			cmd.Println("You are signed in.")
			if status.AccessExpiresAt != nil {
				cmd.Printf("The access token expires at %s.\n", status.AccessExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func passwordResetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password-reset",
		Short: "Reset a forgotten password",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "request EMAIL",
			Short: "Send a reset code to the email",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				msg, err := a.services.Auth.RequestPasswordReset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Println(msg.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:   "verify CODE",
			Short: "Set a new password with the code that was sent",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				password, err := a.promptForPassword(cmd, "New password: ")
				if err != nil {
					return err
				}
				msg, err := a.services.Auth.ResetPassword(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				cmd.Println(msg.Message)
				return nil
			},
		},
	)
	return cmd
}
