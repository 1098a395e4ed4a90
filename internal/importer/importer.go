package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"

	"reviewhub/internal/models"
)

// Files are loaded in dependency order so foreign keys resolve.
var fileOrder = []string{
	"users.csv",
	"category.csv",
	"genre.csv",
	"titles.csv",
	"genre_title.csv",
	"review.csv",
	"comments.csv",
}

// RowWarning records a single skipped row. The run keeps going.
type RowWarning struct {
	Line int
	Err  error
}

func (w RowWarning) String() string {
	return fmt.Sprintf("line %d: %v", w.Line, w.Err)
}

// FileReport is the outcome for one source file.
type FileReport struct {
	File     string
	Created  int
	Updated  int
	Warnings []RowWarning
	// Err is set when the file itself could not be read. Row-level
	// problems go to Warnings instead.
	Err error
}

// Summary aggregates the whole run.
type Summary struct {
	Files []FileReport
}

func (s *Summary) Created() int {
	n := 0
	for _, f := range s.Files {
		n += f.Created
	}
	return n
}

func (s *Summary) Updated() int {
	n := 0
	for _, f := range s.Files {
		n += f.Updated
	}
	return n
}

func (s *Summary) Skipped() int {
	n := 0
	for _, f := range s.Files {
		n += len(f.Warnings)
	}
	return n
}

// Importer loads the seed CSV files into the database. Each row is an
// upsert keyed by the entity's natural key, so re-running the import
// against the same data is a no-op apart from updates.
type Importer struct {
	db     *gorm.DB
	logger *slog.Logger

	// source user ids are small integers, stored users carry UUIDs
	userIDs map[string]string
}

func New(db *gorm.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:      db,
		logger:  logger,
		userIDs: make(map[string]string),
	}
}

// Run imports every known file found under dir, in order. A broken or
// missing file is reported and does not stop the run; only a context
// cancellation or a non-row database failure aborts.
func (im *Importer) Run(ctx context.Context, dir string) (*Summary, error) {
	summary := &Summary{}
	for _, name := range fileOrder {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		report := im.importFile(ctx, filepath.Join(dir, name))
		report.File = name
		summary.Files = append(summary.Files, report)

		if report.Err != nil {
			im.logger.Warn("skipping file", "file", name, "error", report.Err)
			continue
		}
		for _, w := range report.Warnings {
			im.logger.Warn("skipping row", "file", name, "line", w.Line, "error", w.Err)
		}
		im.logger.Info("imported file",
			"file", name, "created", report.Created, "updated", report.Updated, "skipped", len(report.Warnings))
	}
	return summary, nil
}

func (im *Importer) importFile(ctx context.Context, path string) FileReport {
	var report FileReport

	f, err := os.Open(path)
	if err != nil {
		report.Err = err
		return report
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		report.Err = fmt.Errorf("read header: %w", err)
		return report
	}

	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Warnings = append(report.Warnings, RowWarning{Line: line, Err: err})
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		created, err := im.upsertRow(ctx, filepath.Base(path), row)
		if err != nil {
			report.Warnings = append(report.Warnings, RowWarning{Line: line, Err: err})
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return report
}

func (im *Importer) upsertRow(ctx context.Context, file string, row map[string]string) (bool, error) {
	switch file {
	case "users.csv":
		return im.upsertUser(ctx, row)
	case "category.csv":
		return im.upsertCategory(ctx, row)
	case "genre.csv":
		return im.upsertGenre(ctx, row)
	case "titles.csv":
		return im.upsertTitle(ctx, row)
	case "genre_title.csv":
		return im.linkTitleGenre(ctx, row)
	case "review.csv":
		return im.upsertReview(ctx, row)
	case "comments.csv":
		return im.upsertComment(ctx, row)
	}
	return false, fmt.Errorf("no importer for file %q", file)
}

func (im *Importer) upsertUser(ctx context.Context, row map[string]string) (bool, error) {
	username := row["username"]
	if username == "" {
		return false, errors.New("missing username")
	}

	var user models.User
	err := im.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		updates := models.User{
			Email:     row["email"],
			Role:      defaultRole(row["role"]),
			Bio:       row["bio"],
			FirstName: row["first_name"],
			LastName:  row["last_name"],
		}
		if err := im.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return false, err
		}
		im.userIDs[row["id"]] = user.ID
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Username:  username,
			Email:     row["email"],
			Role:      defaultRole(row["role"]),
			Bio:       row["bio"],
			FirstName: row["first_name"],
			LastName:  row["last_name"],
		}
		if err := im.db.WithContext(ctx).Create(&user).Error; err != nil {
			return false, err
		}
		im.userIDs[row["id"]] = user.ID
		return true, nil
	default:
		return false, err
	}
}

func (im *Importer) upsertCategory(ctx context.Context, row map[string]string) (bool, error) {
	slug := row["slug"]
	if slug == "" {
		return false, errors.New("missing slug")
	}

	var cat models.Category
	err := im.db.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error
	switch {
	case err == nil:
		return false, im.db.WithContext(ctx).Model(&cat).Update("name", row["name"]).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		cat = models.Category{Name: row["name"], Slug: slug}
		if id, ok := parseID(row["id"]); ok {
			cat.ID = id
		}
		return true, im.db.WithContext(ctx).Create(&cat).Error
	default:
		return false, err
	}
}

func (im *Importer) upsertGenre(ctx context.Context, row map[string]string) (bool, error) {
	slug := row["slug"]
	if slug == "" {
		return false, errors.New("missing slug")
	}

	var genre models.Genre
	err := im.db.WithContext(ctx).Where("slug = ?", slug).First(&genre).Error
	switch {
	case err == nil:
		return false, im.db.WithContext(ctx).Model(&genre).Update("name", row["name"]).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		genre = models.Genre{Name: row["name"], Slug: slug}
		if id, ok := parseID(row["id"]); ok {
			genre.ID = id
		}
		return true, im.db.WithContext(ctx).Create(&genre).Error
	default:
		return false, err
	}
}

func (im *Importer) upsertTitle(ctx context.Context, row map[string]string) (bool, error) {
	id, ok := parseID(row["id"])
	if !ok {
		return false, fmt.Errorf("bad title id %q", row["id"])
	}
	year, err := strconv.Atoi(row["year"])
	if err != nil {
		return false, fmt.Errorf("bad year %q", row["year"])
	}

	var categoryID *int64
	if cid, ok := parseID(row["category"]); ok {
		categoryID = &cid
	}

	var title models.Title
	err = im.db.WithContext(ctx).Where("id = ?", id).First(&title).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"name":        row["name"],
			"year":        year,
			"category_id": categoryID,
		}
		if desc, ok := row["description"]; ok {
			updates["description"] = desc
		}
		return false, im.db.WithContext(ctx).Model(&title).Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		title = models.Title{
			ID:          id,
			Name:        row["name"],
			Year:        year,
			Description: row["description"],
			CategoryID:  categoryID,
		}
		return true, im.db.WithContext(ctx).Create(&title).Error
	default:
		return false, err
	}
}

func (im *Importer) linkTitleGenre(ctx context.Context, row map[string]string) (bool, error) {
	titleID, ok := parseID(row["title_id"])
	if !ok {
		return false, fmt.Errorf("bad title_id %q", row["title_id"])
	}
	genreID, ok := parseID(row["genre_id"])
	if !ok {
		return false, fmt.Errorf("bad genre_id %q", row["genre_id"])
	}

	var count int64
	err := im.db.WithContext(ctx).Table("title_genres").
		Where("title_id = ? AND genre_id = ?", titleID, genreID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	err = im.db.WithContext(ctx).Table("title_genres").Create(map[string]any{
		"title_id": titleID,
		"genre_id": genreID,
	}).Error
	return err == nil, err
}

func (im *Importer) upsertReview(ctx context.Context, row map[string]string) (bool, error) {
	titleID, ok := parseID(row["title_id"])
	if !ok {
		return false, fmt.Errorf("bad title_id %q", row["title_id"])
	}
	authorID, err := im.resolveAuthor(row["author"])
	if err != nil {
		return false, err
	}
	score, err := strconv.Atoi(row["score"])
	if err != nil || score < 1 || score > 10 {
		return false, fmt.Errorf("bad score %q", row["score"])
	}
	pubDate, err := parseDate(row["pub_date"])
	if err != nil {
		return false, err
	}

	// natural key: one review per (author, title)
	var review models.Review
	err = im.db.WithContext(ctx).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		First(&review).Error
	switch {
	case err == nil:
		updates := map[string]any{"text": row["text"], "score": score}
		return false, im.db.WithContext(ctx).Model(&review).Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = models.Review{
			Text:      row["text"],
			Score:     score,
			AuthorID:  authorID,
			TitleID:   titleID,
			CreatedAt: pubDate,
		}
		if id, ok := parseID(row["id"]); ok {
			review.ID = id
		}
		return true, im.db.WithContext(ctx).Create(&review).Error
	default:
		return false, err
	}
}

func (im *Importer) upsertComment(ctx context.Context, row map[string]string) (bool, error) {
	id, ok := parseID(row["id"])
	if !ok {
		return false, fmt.Errorf("bad comment id %q", row["id"])
	}
	reviewID, ok := parseID(row["review_id"])
	if !ok {
		return false, fmt.Errorf("bad review_id %q", row["review_id"])
	}
	authorID, err := im.resolveAuthor(row["author"])
	if err != nil {
		return false, err
	}
	pubDate, err := parseDate(row["pub_date"])
	if err != nil {
		return false, err
	}

	var comment models.Comment
	err = im.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	switch {
	case err == nil:
		updates := map[string]any{"text": row["text"], "review_id": reviewID}
		return false, im.db.WithContext(ctx).Model(&comment).Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		comment = models.Comment{
			ID:        id,
			Text:      row["text"],
			AuthorID:  authorID,
			ReviewID:  reviewID,
			CreatedAt: pubDate,
		}
		return true, im.db.WithContext(ctx).Create(&comment).Error
	default:
		return false, err
	}
}

// resolveAuthor maps a source user id onto a stored user UUID. The map is
// filled while importing users.csv; a reference to an unknown author is a
// row-level integrity error.
func (im *Importer) resolveAuthor(sourceID string) (string, error) {
	if id, ok := im.userIDs[sourceID]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown author %q", sourceID)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad pub_date %q", s)
	}
	return t, nil
}

func defaultRole(role string) string {
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		return role
	default:
		return models.RoleUser
	}
}
