package database

import "warbler/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Message{},
		&models.Follow{},
		&models.Like{},
	}
}
