package database

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
)

// Bootstrap loads the initial principals from a yaml file when the users table is empty.
// Without them nobody could issue the first invitation.
func (mm *DatabaseManager) Bootstrap(usersFile string) (int, error) {
	n, err := mm.UserQuery().Count()
	if err != nil {
		return 0, err
	}

	if n > 0 {
		return 0, nil
	}

	users, err := LoadUsersFile(usersFile)
	if err != nil {
		return 0, err
	}

	created := 0

	// all or nothing: a half loaded table would never be bootstrapped again
	err = mm.db.Transaction(func(tx *gorm.DB) error {
		txm := &DatabaseManager{db: tx, logger: mm.logger}

		for _, u := range users {
			if u.ID == "" {
				continue
			}

			if err := txm.CreateUser(u); err != nil {
				if errors.Is(err, common.ErrConflict) {
					mm.logger.Warn("duplicate id in users file", slog.String("id", u.ID), slog.String("file", usersFile))
					continue
				}

				return err
			}

			created++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	if created > 0 {
		mm.logger.Info("bootstrap principals loaded", slog.Int("count", created), slog.String("file", usersFile))
	}

	return created, nil
}

func LoadUsersFile(fn string) ([]*model.User, error) {
	if fn == "" {
		return nil, nil
	}

	if _, err := os.Lstat(fn); os.IsNotExist(err) {
		return nil, nil
	}

	dat, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0)

	if err := yaml.Unmarshal(dat, &users); err != nil {
		return nil, err
	}

	return users, nil
}
