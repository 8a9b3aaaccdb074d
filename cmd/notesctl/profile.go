package main

import (
	"fmt"
	"io"

	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/spf13/cobra"
)

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
	}

	var username string
	var changePassword bool
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change the username or the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.services.User.Profile(cmd.Context())
			if err != nil {
				return err
			}
			update := models.ProfileUpdate{Username: user.Username, TypeAuth: user.TypeAuth}
			if cmd.Flags().Changed("username") {
				update.Username = optional(username)
			}
			if changePassword {
				if user.TypeAuth != models.LocalAuthType {
					return fmt.Errorf("accounts signed in with a social provider have no password")
				}
				current, err := a.promptForPassword(cmd, "Current password: ")
				if err != nil {
					return err
				}
				updated, err := a.promptForPassword(cmd, "New password: ")
				if err != nil {
					return err
				}
				update.CurrentPassword = &current
				update.NewPassword = &updated
			}
			msg, err := a.services.User.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			cmd.Println(msg.Message)
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&username, "username", "u", "", "The new username, empty to remove it")
	updateCmd.Flags().BoolVarP(&changePassword, "password", "p", false, "Change the password")

	avatarCmd := &cobra.Command{
		Use:   "avatar OBJECT_KEY",
		Short: "Use an uploaded image as the avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.services.User.Profile(cmd.Context())
			if err != nil {
				return err
			}
			err = a.services.User.UpdateAvatar(cmd.Context(), user.ID, args[0])
			if err != nil {
				return err
			}
			cmd.Println("The avatar was updated.")
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show your profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.services.User.Profile(cmd.Context())
				if err != nil {
					return err
				}
				return a.render(cmd, user, func(w io.Writer) { printUser(w, user) })
			},
		},
		updateCmd,
		avatarCmd,
	)
	return cmd
}
