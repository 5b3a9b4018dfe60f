package services_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"medforms/backend/models"
	"medforms/backend/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB поднимает отдельную in-memory базу на каждый тест.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"),
	)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	return db
}

func createManager(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:          email,
		FullName:       "Иванов Иван Иванович",
		HashedPassword: "x",
		Born:           time.Date(1980, 3, 14, 0, 0, 0, 0, time.UTC),
		IsManager:      true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createPatient(t *testing.T, db *gorm.DB, email, fio string) *models.User {
	t.Helper()
	user := models.User{
		Email:          email,
		FullName:       fio,
		HashedPassword: "x",
		Born:           time.Date(1995, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func intPtr(v int) *int {
	return &v
}
