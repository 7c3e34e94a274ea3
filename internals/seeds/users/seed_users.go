package users

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"absensiku_backend/internals/constants"
	"absensiku_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserSeed struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// LoadUserSeeds membaca & memvalidasi file seed user.
func LoadUserSeeds(filePath string) ([]model.UserModel, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("gagal membaca file seed: %w", err)
	}

	var inputs []UserSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		return nil, fmt.Errorf("gagal decode JSON: %w", err)
	}

	out := make([]model.UserModel, 0, len(inputs))
	seen := map[string]bool{}
	for i, data := range inputs {
		email := strings.ToLower(strings.TrimSpace(data.Email))
		if email == "" || strings.TrimSpace(data.UserName) == "" {
			return nil, fmt.Errorf("seed #%d: user_name & email wajib", i)
		}
		if seen[email] {
			return nil, fmt.Errorf("seed #%d: email %q duplikat", i, email)
		}
		seen[email] = true

		role := constants.NormalizeRole(data.Role)
		if role == "" {
			role = constants.RoleStaff
		}
		if _, ok := constants.RoleScopes[role]; !ok {
			return nil, fmt.Errorf("seed #%d: role %q tidak dikenal", i, data.Role)
		}

		id := uuid.New()
		if data.ID != "" {
			if id, err = uuid.Parse(data.ID); err != nil {
				return nil, fmt.Errorf("seed #%d: id tidak valid: %w", i, err)
			}
		}
		active := true
		if data.IsActive != nil {
			active = *data.IsActive
		}

		out = append(out, model.UserModel{
			ID:       id,
			UserName: strings.TrimSpace(data.UserName),
			Email:    email,
			Role:     role,
			IsActive: active,
		})
	}
	return out, nil
}

// SeedUsersFromJSON: insert user yang belum ada (email sudah ada → dilewati).
func SeedUsersFromJSON(db *gorm.DB, filePath string, log *zap.Logger) error {
	log.Info("📥 Membaca file user", zap.String("path", filePath))

	users, err := LoadUserSeeds(filePath)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&users)
	if res.Error != nil {
		return fmt.Errorf("gagal insert user seed: %w", res.Error)
	}
	log.Info("✅ Seed user selesai",
		zap.Int("total", len(users)),
		zap.Int64("inserted", res.RowsAffected),
	)
	return nil
}
