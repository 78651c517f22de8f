package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"awazgram-server/database"
	"awazgram-server/models"
	"awazgram-server/services"
	"awazgram-server/utils"
)

type accountFlags struct {
	username string
	email    string
	password string
	village  string
	phone    string
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}
			defer closeDatabase()

			if err := database.RunMigrations(database.DB); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newCreateAdminCommand() *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a village administrator",
		Long:  `Create an administrator account bound to one village. Only complaints whose location matches the village are visible to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createAccount(cmd, f, models.RoleAdmin)
		},
	}
	addAccountFlags(cmd, &f)
	cmd.Flags().StringVar(&f.village, "village", "", "Village the administrator manages (required)")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Contact phone number")
	_ = cmd.MarkFlagRequired("village")
	return cmd
}

func newCreateSuperuserCommand() *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a superuser that can manage every village",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createAccount(cmd, f, models.RoleSuperuser)
		},
	}
	addAccountFlags(cmd, &f)
	return cmd
}

func addAccountFlags(cmd *cobra.Command, f *accountFlags) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Login name (required)")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.password, "password", "", "Password; prompted for when omitted")
	_ = cmd.MarkFlagRequired("username")
}

func createAccount(cmd *cobra.Command, f accountFlags, role models.UserRole) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDatabase()

	if err := database.RunMigrations(database.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	password := f.password
	if password == "" {
		if password, err = promptPassword(cmd); err != nil {
			return err
		}
	}

	db := database.GetDB()
	auth := services.NewAuthService(db, services.NewJWTService(cfg.JWT), nil, cfg.Complaint.ResetTokenTTL)
	user, err := auth.CreateAccount(context.Background(), services.AccountCreate{
		Username:    f.username,
		Email:       f.email,
		Password:    password,
		Role:        role,
		VillageName: f.village,
		PhoneNumber: f.phone,
	})
	if err != nil {
		return err
	}

	if role == models.RoleAdmin {
		fmt.Fprintf(cmd.OutOrStdout(), "administrator %q created for village %q\n", user.Username, f.village)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "superuser %q created\n", user.Username)
	}
	return nil
}

// promptPassword reads the password twice without echo on a terminal, or once from piped stdin.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	out := cmd.ErrOrStderr()
	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) < utils.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", utils.MinPasswordLength)
	}
	return string(first), nil
}
