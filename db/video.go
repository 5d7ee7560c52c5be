package db

import (
	"database/sql"
	"time"

	"github.com/shortshub/shortshub/models"
)

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}

// CreateVideo stores video metadata for a user. The binary lives in
// external storage; only the URL is recorded here.
func (db *DB) CreateVideo(video *models.Video) (int64, error) {
	result, err := db.Exec(`
	INSERT INTO videos (user_id, title, description, storage_url, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		video.UserID, video.Title, video.Description, video.StorageURL,
		video.Source, time.Now())

	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// ListVideos returns a user's videos, newest first.
func (db *DB) ListVideos(userID int64) ([]*models.Video, error) {
	rows, err := db.Query(`
	SELECT id, user_id, title, description, storage_url, source, created_at
	FROM videos WHERE user_id = ? ORDER BY created_at DESC`, userID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video

	for rows.Next() {
		video := &models.Video{}
		err := rows.Scan(
			&video.ID, &video.UserID, &video.Title, &video.Description,
			&video.StorageURL, &video.Source, &video.CreatedAt)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}
