package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
)

func openTestDatabase(t *testing.T, path string) Database {
	t.Helper()
	db, err := Open(OpenConfig{Type: TypeSQLite, Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	d := New(db)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func newTestDatabase(t *testing.T) Database {
	t.Helper()
	return openTestDatabase(t, filepath.Join(t.TempDir(), "test.db"))
}

func seedProject(t *testing.T, d Database, title string, createdAt time.Time, filenames ...string) *models.Project {
	t.Helper()
	p := &models.Project{Title: title, CreatedAt: createdAt, UpdatedAt: createdAt}
	for i, name := range filenames {
		p.Images = append(p.Images, models.ProjectImage{Filename: name, OriginalName: "orig-" + name, IsCover: i == 0})
	}
	require.NoError(t, d.ProjectRepo().Create(context.Background(), p))
	return p
}

func TestOpen_RejectsUnknownType(t *testing.T) {
	_, err := Open(OpenConfig{Type: "mongo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestUserRepo_FindAndRotate(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	_, err := d.UserRepo().FindByUsername(ctx, "admin")
	assert.True(t, errs.IsNotFound(err))

	u := &models.User{Username: "admin", PasswordHash: "h1"}
	require.NoError(t, d.UserRepo().Add(ctx, u))
	require.NotZero(t, u.ID)

	err = d.UserRepo().Add(ctx, &models.User{Username: "admin", PasswordHash: "dup"})
	require.Error(t, err)
	assert.True(t, errs.IsUniqueConstraintViolationError(errs.NewDatabaseError("create", "user", err)))

	require.NoError(t, d.UserRepo().UpdatePasswordHash(ctx, u.ID, "h2"))
	got, err := d.UserRepo().FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	assert.True(t, errs.IsNotFound(d.UserRepo().UpdatePasswordHash(ctx, 999, "h3")))
}

func TestProjectRepo_ListsNewestFirstWithImages(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seedProject(t, d, "Old", base, "old-a.jpg")
	seedProject(t, d, "Empty", base.Add(time.Hour))
	villa := seedProject(t, d, "Villa Rossi", base.Add(2*time.Hour), "a.jpg", "b.jpg")

	public, err := d.ProjectRepo().ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, public, 3)

	assert.Equal(t, "Villa Rossi", public[0].Title)
	assert.Equal(t, []models.PublicImage{
		{Filename: "a.jpg", IsCover: true},
		{Filename: "b.jpg", IsCover: false},
	}, public[0].Images)
	assert.Equal(t, "Empty", public[1].Title)
	assert.Empty(t, public[1].Images)
	assert.NotNil(t, public[1].Images)
	assert.Equal(t, "Old", public[2].Title)

	admin, err := d.ProjectRepo().ListAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, admin, 3)
	require.Len(t, admin[0].Images, 2)
	assert.Equal(t, villa.Images[0].ID, admin[0].Images[0].ID)
	assert.Equal(t, "orig-a.jpg", admin[0].Images[0].OriginalName)
	assert.True(t, admin[0].Images[0].IsCover)
}

func TestProjectRepo_UpdateAppendsImagesAndPromotesMissingCover(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	withCover := seedProject(t, d, "With cover", now, "c1.jpg")
	bare := seedProject(t, d, "Bare", now)

	later := now.Add(time.Hour)
	require.NoError(t, d.ProjectRepo().Update(ctx, withCover.ID,
		ProjectFields{Title: "Renamed", Description: "d", Category: "Residenziale"}, later,
		[]models.ProjectImage{{Filename: "c2.jpg"}, {Filename: "c3.jpg"}}))

	require.NoError(t, d.ProjectRepo().Update(ctx, bare.ID,
		ProjectFields{Title: "Bare"}, later,
		[]models.ProjectImage{{Filename: "n1.jpg"}, {Filename: "n2.jpg"}}))

	got, err := d.ProjectRepo().FindByID(ctx, withCover.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Residenziale", got.Category)
	assert.True(t, got.UpdatedAt.Equal(later))
	require.Len(t, got.Images, 3)
	assert.True(t, got.Images[0].IsCover)
	assert.False(t, got.Images[1].IsCover)
	assert.False(t, got.Images[2].IsCover)

	got, err = d.ProjectRepo().FindByID(ctx, bare.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.True(t, got.Images[0].IsCover)
	assert.False(t, got.Images[1].IsCover)
}

func TestProjectRepo_UpdateMissingProject(t *testing.T) {
	d := newTestDatabase(t)

	err := d.ProjectRepo().Update(context.Background(), 42, ProjectFields{Title: "x"}, time.Now(),
		[]models.ProjectImage{{Filename: "orphan.jpg"}})
	assert.True(t, errs.IsNotFound(err))

	images, err := d.ProjectImageRepo().FindByProject(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestProjectRepo_DeleteCascadesImages(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	now := time.Now().UTC()

	keep := seedProject(t, d, "Keep", now, "k.jpg")
	gone := seedProject(t, d, "Gone", now, "g1.jpg", "g2.jpg")

	filenames, err := d.ProjectRepo().Delete(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1.jpg", "g2.jpg"}, filenames)

	images, err := d.ProjectImageRepo().FindByProject(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	list, err := d.ProjectRepo().ListAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	filenames, err = d.ProjectRepo().Delete(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, filenames)
}

func TestProjectImageRepo_DeleteSingle(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	p := seedProject(t, d, "P", time.Now().UTC(), "1.jpg", "2.jpg", "3.jpg")

	removed, err := d.ProjectImageRepo().Delete(ctx, p.Images[1].ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "2.jpg", removed.Filename)

	left, err := d.ProjectImageRepo().FindByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "1.jpg", left[0].Filename)
	assert.Equal(t, "3.jpg", left[1].Filename)

	removed, err = d.ProjectImageRepo().Delete(ctx, p.Images[1].ID)
	require.NoError(t, err)
	assert.Nil(t, removed)

	extra := &models.ProjectImage{ProjectID: p.ID, Filename: "4.jpg"}
	require.NoError(t, d.ProjectImageRepo().Add(ctx, extra))
	assert.NotZero(t, extra.ID)
}

func TestDatabase_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	db, err := Open(OpenConfig{Type: TypeSQLite, Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	first := New(db)
	seedProject(t, first, "Durable", time.Now().UTC(), "d.jpg")
	require.NoError(t, first.Close())

	second := openTestDatabase(t, path)
	list, err := second.ProjectRepo().ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Durable", list[0].Title)
	assert.Equal(t, "d.jpg", list[0].Images[0].Filename)
}
