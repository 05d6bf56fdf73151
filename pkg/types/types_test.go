package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	BaseModel
	Name string
}

func TestBaseModelMigratesAndGeneratesID(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.AutoMigrate(&widget{}))

	w := widget{Name: "first"}
	require.NoError(t, db.Create(&w).Error)
	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.False(t, w.CreatedAt.IsZero())
}

func TestBaseModelKeepsCallerAssignedID(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.AutoMigrate(&widget{}))

	id := uuid.New()
	w := widget{BaseModel: BaseModel{ID: id}, Name: "pinned"}
	require.NoError(t, db.Create(&w).Error)
	assert.Equal(t, id, w.ID)
}

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{"title": "Title can't be blank"}

	assert.Equal(t, "validation failed", errs.Error())
	assert.True(t, errs.Has("title"))
	assert.False(t, errs.Has("content"))
}
