package account

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// UserModel maps the columns of the API server's users table that the gateway
// reads. The table is owned and migrated by the API server.
type UserModel struct {
	ID       string `gorm:"type:varchar(36);primaryKey"`
	Nickname string `gorm:"type:varchar(100)"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// GormDirectory implements Directory against the platform's user table.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Lookup(ctx context.Context, id string) (*Account, error) {
	var model UserModel
	result := d.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, result.Error
	}
	return &Account{ID: model.ID, Nickname: model.Nickname}, nil
}
