package models

import "gorm.io/gorm"

type Post struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	UserID      uint // автор (менеджер)
}
