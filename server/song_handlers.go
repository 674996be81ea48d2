package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tuneshelf/cache"
	"tuneshelf/core/ingest"
	"tuneshelf/logger"
	"tuneshelf/repository"

	"github.com/gorilla/mux"
)

// APIHandler holds dependencies for the song API handlers.
type APIHandler struct {
	songRepo  repository.SongRepository
	ingestor  *ingest.Ingestor
	songCache *cache.SongCache
	maxUpload int64
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(songRepo repository.SongRepository, ingestor *ingest.Ingestor, songCache *cache.SongCache, maxUpload int64) *APIHandler {
	return &APIHandler{
		songRepo:  songRepo,
		ingestor:  ingestor,
		songCache: songCache,
		maxUpload: maxUpload,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode JSON response", logger.ErrorField(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// GetSongsHandler returns all songs, newest first. Always 200 with a JSON
// array; empty when the catalog has no rows.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if songs, ok := h.songCache.GetSongList(ctx); ok {
		respondJSON(w, http.StatusOK, songs)
		return
	}

	songs, err := h.songRepo.GetAllSongs(ctx)
	if err != nil {
		logger.Error("Failed to fetch songs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch songs")
		return
	}

	h.songCache.SetSongList(ctx, songs)
	respondJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns a single song by ID, or 404 if it does not exist.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to fetch song", logger.Int64("songId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch song")
		return
	}
	if song == nil {
		respondError(w, http.StatusNotFound, "Song not found")
		return
	}

	respondJSON(w, http.StatusOK, song)
}

// UploadSongHandler handles audio uploads.
// Expected multipart form fields:
// - audio: the audio file
// - title: song title
// - artist: song artist
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 50 MB")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 50 MB")
			return
		}
		respondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	req := &ingest.Request{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		Size:   -1,
	}

	file, header, err := r.FormFile("audio")
	switch {
	case err == nil:
		defer file.Close()
		req.File = file
		req.OriginalName = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
		req.Size = header.Size
	case errors.Is(err, http.ErrMissingFile):
		// Leave req.File nil; the pipeline reports MissingFile.
	default:
		respondError(w, http.StatusBadRequest, "Failed to read audio file from form")
		return
	}

	song, ierr := h.ingestor.Ingest(r.Context(), req)
	if ierr != nil {
		respondError(w, statusForIngestError(ierr.Kind), ierr.Message)
		return
	}

	h.songCache.Invalidate(r.Context())

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Song uploaded successfully",
		"song":    song,
	})
}

// statusForIngestError maps an ingestion error kind to an HTTP status.
// Storage and persistence failures surface as a generic 500; the cause is
// already logged by the pipeline and is never leaked to the client.
func statusForIngestError(kind ingest.ErrorKind) int {
	switch kind {
	case ingest.KindMissingFile, ingest.KindMissingFields:
		return http.StatusBadRequest
	case ingest.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case ingest.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
