package seeds

import (
	users "absensiku_backend/internals/seeds/users"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultUsersFile = "internals/seeds/users/data_users.json"

// RunAllSeeds dipanggil saat DB_SEED=true (dev/staging).
func RunAllSeeds(db *gorm.DB, log *zap.Logger, usersFile string) error {
	if usersFile == "" {
		usersFile = DefaultUsersFile
	}

	//* User
	return users.SeedUsersFromJSON(db, usersFile, log)
}
