package database

import (
	"context"
	"fmt"
	"testing"

	"mungboard/internal/config"
	"mungboard/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1&_cslike=1", uuid.NewString())
	db, err := Open(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"sqlite default", config.Config{DBDriver: "sqlite"}, false, true, false},
		{"sqlite hybrid in production", config.Config{DBDriver: "sqlite", Env: "production", DBSchemaMode: "hybrid"}, false, true, false},
		{"sqlite sql mode", config.Config{DBDriver: "sqlite", DBSchemaMode: "sql"}, false, false, true},
		{"postgres hybrid dev", config.Config{DBDriver: "postgres", Env: "development", DBSchemaMode: "hybrid"}, true, true, false},
		{"postgres hybrid prod", config.Config{DBDriver: "postgres", Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"postgres sql", config.Config{DBDriver: "postgres", DBSchemaMode: "sql"}, true, false, false},
		{"postgres auto dev", config.Config{DBDriver: "postgres", DBSchemaMode: "auto"}, false, true, false},
		{"postgres auto prod", config.Config{DBDriver: "postgres", Env: "production", DBSchemaMode: "auto"}, false, false, true},
		{"unknown mode", config.Config{DBDriver: "postgres", DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	loaded, err := LoadMigrations(migrationFS)
	require.NoError(t, err)
	require.NotEmpty(t, loaded)

	first := loaded[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "init_schema", first.Name)
	assert.Contains(t, first.UpScript, "CREATE TABLE IF NOT EXISTS comments")
	assert.Contains(t, first.DownScript, "DROP TABLE IF EXISTS posts")
	assert.Equal(t, "000001_init_schema", first.String())

	for i := 1; i < len(loaded); i++ {
		assert.Less(t, loaded[i-1].Version, loaded[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999999))
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions([]int{1}, registered))
	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")

	pending := pendingMigrations([]int{1}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
}

func TestApplySchema_SQLiteAutoMigratesAndCascades(t *testing.T) {
	db := openMemory(t)
	cfg := &config.Config{DBDriver: "sqlite", DBSchemaMode: SchemaModeHybrid}
	require.NoError(t, ApplySchema(context.Background(), db, cfg))

	user := models.User{LoginID: "walker", Email: "walker@example.com", Password: "x", Nickname: "walker"}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{UserID: user.ID, Title: "t", Content: "c", Category: models.CategoryFree, Password: "pw"}
	require.NoError(t, db.Create(&post).Error)
	root := models.Comment{PostID: post.ID, UserID: user.ID, Content: "root"}
	require.NoError(t, db.Create(&root).Error)
	child := models.Comment{PostID: post.ID, UserID: user.ID, ParentID: &root.ID, Content: "child"}
	require.NoError(t, db.Create(&child).Error)

	require.NoError(t, db.Delete(&models.Post{}, post.ID).Error)

	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestOpen_TranslatesForeignKeyErrors(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, AutoMigrate(db))

	err := db.Create(&models.Post{UserID: 4242, Title: "t", Content: "c", Category: "free", Password: "pw"}).Error
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
}

func TestGetSchemaStatus_SQLiteSkipsSQL(t *testing.T) {
	db := openMemory(t)
	status, err := GetSchemaStatus(context.Background(), db, &config.Config{DBDriver: "sqlite"})
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	assert.Equal(t, SchemaModeHybrid, status.Mode)
}

func TestPersistentModels_ParentsBeforeChildren(t *testing.T) {
	list := PersistentModels()
	require.Len(t, list, 3)
	_, isUser := list[0].(*models.User)
	_, isComment := list[2].(*models.Comment)
	assert.True(t, isUser)
	assert.True(t, isComment)
}

func TestDialector(t *testing.T) {
	_, err := Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)

	d, err := Dialector(&config.Config{DBDriver: "sqlite", DBSQLitePath: "board.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
	assert.Equal(t, "file:board.db?_foreign_keys=1&_cslike=1&_busy_timeout=5000", SQLiteDSN("board.db"))
}
