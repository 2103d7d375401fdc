package database

import "mungboard/internal/models"

// PersistentModels lists every model AutoMigrate manages, parents before children.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Post{},
		&models.Comment{},
	}
}
