package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reviewhub/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "import.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	))
	return db
}

func writeSeedFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

var seedFiles = map[string]string{
	"users.csv": "id,username,email,role,bio,first_name,last_name\n" +
		"1,alice,alice@example.com,user,,Alice,A\n" +
		"2,bob,bob@example.com,moderator,,Bob,B\n",
	"category.csv": "id,name,slug\n1,Movies,movies\n2,Books,books\n",
	"genre.csv":    "id,name,slug\n1,Sci-Fi,sci-fi\n2,Drama,drama\n",
	"titles.csv": "id,name,year,category\n" +
		"1,Arrival,2016,1\n" +
		"2,Solaris,1972,1\n",
	"genre_title.csv": "id,title_id,genre_id\n1,1,1\n2,1,2\n3,2,1\n",
	"review.csv": "id,title_id,text,author,score,pub_date\n" +
		"1,1,Loved it,1,9,2019-09-24T21:08:21Z\n" +
		"2,1,Decent,2,6,2019-09-25T10:00:00Z\n",
	"comments.csv": "id,review_id,text,author,pub_date\n" +
		"1,1,same here,2,2019-09-26T08:00:00Z\n",
}

func TestImporter_Run(t *testing.T) {
	db := newTestDB(t)
	dir := writeSeedFiles(t, seedFiles)

	summary, err := New(db, nil).Run(context.Background(), dir)
	require.NoError(t, err)

	// 2 users + 2 categories + 2 genres + 2 titles + 3 links + 2 reviews + 1 comment
	assert.Equal(t, 14, summary.Created())
	assert.Equal(t, 0, summary.Skipped())

	var userCount, titleCount, reviewCount, linkCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Title{}).Count(&titleCount)
	db.Model(&models.Review{}).Count(&reviewCount)
	db.Table("title_genres").Count(&linkCount)
	assert.EqualValues(t, 2, userCount)
	assert.EqualValues(t, 2, titleCount)
	assert.EqualValues(t, 2, reviewCount)
	assert.EqualValues(t, 3, linkCount)

	// author references resolve to the stored UUIDs
	var review models.Review
	require.NoError(t, db.Preload("Author").First(&review, 1).Error)
	assert.Equal(t, "alice", review.Author.Username)
}

func TestImporter_RunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	dir := writeSeedFiles(t, seedFiles)
	im := New(db, nil)

	_, err := im.Run(context.Background(), dir)
	require.NoError(t, err)

	second, err := New(db, nil).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created())
	assert.Equal(t, 14, second.Updated())
	assert.Equal(t, 0, second.Skipped())

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	assert.EqualValues(t, 2, userCount)
}

func TestImporter_BadRowsAreSkippedNotFatal(t *testing.T) {
	db := newTestDB(t)

	files := map[string]string{}
	for k, v := range seedFiles {
		files[k] = v
	}
	// unknown author and out-of-range score, sandwiched around a good row
	files["review.csv"] = "id,title_id,text,author,score,pub_date\n" +
		"1,1,ghost author,99,5,2019-09-24T21:08:21Z\n" +
		"2,1,fine,1,8,2019-09-24T21:08:21Z\n" +
		"3,2,silly score,2,42,2019-09-24T21:08:21Z\n"
	files["comments.csv"] = "id,review_id,text,author,pub_date\n" +
		"1,2,same here,2,2019-09-26T08:00:00Z\n"
	dir := writeSeedFiles(t, files)

	summary, err := New(db, nil).Run(context.Background(), dir)
	require.NoError(t, err)

	var report FileReport
	for _, f := range summary.Files {
		if f.File == "review.csv" {
			report = f
		}
	}
	assert.Equal(t, 1, report.Created)
	assert.Len(t, report.Warnings, 2)

	// later files still ran
	var commentCount int64
	db.Model(&models.Comment{}).Count(&commentCount)
	assert.EqualValues(t, 1, commentCount)
}

func TestImporter_MissingFileIsReported(t *testing.T) {
	db := newTestDB(t)

	files := map[string]string{}
	for k, v := range seedFiles {
		files[k] = v
	}
	delete(files, "genre.csv")
	dir := writeSeedFiles(t, files)

	summary, err := New(db, nil).Run(context.Background(), dir)
	require.NoError(t, err)

	var missing FileReport
	for _, f := range summary.Files {
		if f.File == "genre.csv" {
			missing = f
		}
	}
	assert.Error(t, missing.Err)

	// the rest of the run still completed
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	assert.EqualValues(t, 2, userCount)
}
