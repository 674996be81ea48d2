package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tuneshelf/logger"
	"tuneshelf/model"
)

// SongRepository defines the interface for song catalog operations.
// The catalog is append-only: rows are created by the ingestion pipeline
// and never updated or deleted.
type SongRepository interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	GetSongByID(ctx context.Context, id int64) (*model.Song, error)
	GetAllSongs(ctx context.Context) ([]*model.Song, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository(sqlDB *sql.DB) SongRepository {
	return &mysqlSongRepository{db: sqlDB}
}

// CreateSong adds a new song to the catalog. It assigns the generated ID
// and creation timestamp to the given song on success.
func (r *mysqlSongRepository) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	query := `INSERT INTO songs (title, artist, duration, audio_url, file_size, file_format, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.ExecContext(ctx, song.Title, song.Artist, song.Duration, song.AudioURL, song.FileSize, song.FileFormat, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateSong: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateSong: %w", err)
	}

	song.ID = id
	song.CreatedAt = now
	logger.Info("Song created", logger.Int64("songId", id), logger.String("title", song.Title))
	return id, nil
}

// GetSongByID retrieves a song by its ID. Returns (nil, nil) when the song
// does not exist.
func (r *mysqlSongRepository) GetSongByID(ctx context.Context, id int64) (*model.Song, error) {
	query := `SELECT id, title, artist, duration, audio_url, file_size, file_format, created_at
	           FROM songs WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.Duration, &song.AudioURL, &song.FileSize, &song.FileFormat, &song.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %d: %w", id, err)
	}
	return song, nil
}

// GetAllSongs retrieves all songs, newest first. Ties on the creation
// timestamp are broken by ID so the ordering is deterministic.
func (r *mysqlSongRepository) GetAllSongs(ctx context.Context) ([]*model.Song, error) {
	query := `SELECT id, title, artist, duration, audio_url, file_size, file_format, created_at
	           FROM songs ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0) // Initialize as an empty slice so the API returns [], never null
	for rows.Next() {
		song := &model.Song{}
		err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Duration, &song.AudioURL, &song.FileSize, &song.FileFormat, &song.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in GetAllSongs: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllSongs: %w", err)
	}

	return songs, nil
}
