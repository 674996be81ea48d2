package ingest

import (
	"context"
	"io"
	"strings"

	"tuneshelf/logger"
	"tuneshelf/model"
	"tuneshelf/repository"
	"tuneshelf/storage"
)

// Request describes one upload to ingest. File is nil when the request
// carried no audio file part.
type Request struct {
	File         io.Reader
	OriginalName string // Client file name; only its extension is used
	ContentType  string // Declared MIME type of the file part
	Size         int64  // Size hint from the transport, -1 if unknown
	Title        string
	Artist       string
}

// Ingestor runs the upload ingestion pipeline: validate the request shape,
// stream the file into the blob store, derive metadata, and insert the
// catalog row. Request validation happens before any bytes are committed,
// and a blob whose catalog insert fails is removed again, so a persisted
// song always resolves to an existing blob and no orphan survives a failed
// ingest.
type Ingestor struct {
	repo  repository.SongRepository
	store storage.BlobStore
}

// New creates an Ingestor over the given catalog and blob store.
func New(repo repository.SongRepository, store storage.BlobStore) *Ingestor {
	return &Ingestor{repo: repo, store: store}
}

// Ingest processes one upload. On success the returned song is the
// persisted catalog row. Failures are never retried here; re-submitting is
// the caller's responsibility.
func (ing *Ingestor) Ingest(ctx context.Context, req *Request) (*model.Song, *Error) {
	if req.File == nil {
		return nil, newError(KindMissingFile, "No audio file uploaded")
	}

	title := strings.TrimSpace(req.Title)
	artist := strings.TrimSpace(req.Artist)
	if title == "" || artist == "" {
		return nil, newError(KindMissingFields, "Title and artist are required")
	}

	if err := ValidateContentType(req.ContentType); err != nil {
		return nil, wrapError(KindUnsupportedMedia, "Only audio files are allowed", err)
	}

	name := GenerateStorageName(req.OriginalName)
	storedPath, written, err := ing.store.Put(ctx, name, req.File, req.Size, req.ContentType)
	if err != nil {
		logger.Error("Failed to store uploaded blob",
			logger.String("name", name),
			logger.ErrorField(err))
		return nil, wrapError(KindStorageFailed, "Failed to upload song", err)
	}

	song := &model.Song{
		Title:      title,
		Artist:     artist,
		Duration:   0, // Duration probing is deferred; must not block the pipeline
		AudioURL:   storedPath,
		FileSize:   written,
		FileFormat: FileFormat(req.OriginalName),
	}

	if _, err := ing.repo.CreateSong(ctx, song); err != nil {
		// Compensating delete: without the catalog row the blob would be
		// an orphan, so the write-then-insert pair is rolled back.
		if rmErr := ing.store.Remove(ctx, name); rmErr != nil {
			logger.Error("Failed to remove blob after catalog insert failure",
				logger.String("name", name),
				logger.ErrorField(rmErr))
		}
		logger.Error("Failed to insert catalog row",
			logger.String("title", title),
			logger.ErrorField(err))
		return nil, wrapError(KindPersistenceFailed, "Failed to upload song", err)
	}

	logger.Info("Song ingested",
		logger.Int64("songId", song.ID),
		logger.String("title", song.Title),
		logger.String("artist", song.Artist),
		logger.Int64("fileSize", song.FileSize),
		logger.String("fileFormat", song.FileFormat))
	return song, nil
}
