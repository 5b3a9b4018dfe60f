package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email            string `gorm:"unique;not null"`
	FullName         string
	HashedPassword   string `gorm:"not null" json:"-"`
	Gender           string `gorm:"default:Не выбран"`
	Born             time.Time
	LatestFormResult string `gorm:"default:ok"`
	IsManager        bool   `gorm:"default:false"`
	Disabled         bool   `gorm:"default:false"`
}

// Age считает полные годы на текущий момент
func (u *User) Age() int {
	now := time.Now()
	years := now.Year() - u.Born.Year()
	if now.YearDay() < u.Born.YearDay() {
		years--
	}
	return years
}

type LoginHistory struct {
	gorm.Model
	UserID    uint
	LoginTime time.Time
}
