// Package seed bootstraps accounts from a YAML file at startup. It is the
// only way to create admin accounts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// UserCreator is satisfied by service.AuthService.
type UserCreator interface {
	CreateUser(ctx context.Context, email, password string, role domain.Role, displayName string) (*domain.User, error)
}

type usersFile struct {
	Users []struct {
		Email       string `yaml:"email"`
		Password    string `yaml:"password"`
		Role        string `yaml:"role"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"users"`
}

// FromFile creates every listed account that does not exist yet and returns
// how many were created. Incomplete entries are skipped.
func FromFile(ctx context.Context, path string, creator UserCreator, log zerolog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	for _, u := range uf.Users {
		if u.Email == "" || u.Password == "" {
			log.Warn().Str("email", u.Email).Msg("skipping incomplete seed entry")
			continue
		}
		_, err := creator.CreateUser(ctx, u.Email, u.Password, domain.ParseRole(u.Role), u.DisplayName)
		if errors.Is(err, domain.ErrUserExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		created++
		log.Info().Str("email", u.Email).Str("role", string(domain.ParseRole(u.Role))).Msg("seeded account")
	}
	return created, nil
}
