package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/model"
	"github.com/iliyamo/indias-got-voice/internal/repository"
	"github.com/iliyamo/indias-got-voice/internal/utils"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE:  runCreateAdmin,
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminEmail, "email", "", "admin email")
	f.StringVar(&adminPassword, "password", "", "admin password")
	f.StringVar(&adminName, "name", "", "admin full name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	_ = createAdminCmd.MarkFlagRequired("name")
}

func runCreateAdmin(*cobra.Command, []string) error {
	email := repository.NormalizeEmail(adminEmail)
	name := strings.TrimSpace(adminName)
	if email == "" || name == "" {
		return errors.New("email and name are required")
	}
	if len(adminPassword) < utils.MinPasswordLength {
		return utils.ErrPasswordTooShort
	}
	return withDB(func(m dbDeps) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		u := model.User{Email: email, FullName: name, UserType: model.UserTypeAdmin}
		if err := repository.NewUserRepo(m.db).Create(ctx, &u, adminPassword, m.cfg.BcryptCost); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return fmt.Errorf("create admin: %s is already registered", email)
			}
			return fmt.Errorf("create admin: %w", err)
		}
		m.log.Info("admin created", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
		return nil
	})
}
