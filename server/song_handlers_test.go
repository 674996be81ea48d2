package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"tuneshelf/cache"
	"tuneshelf/core/ingest"
	"tuneshelf/model"
	"tuneshelf/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSongRepo is an in-memory SongRepository for handler tests.
type fakeSongRepo struct {
	mu     sync.Mutex
	nextID int64
	songs  []*model.Song
}

func (r *fakeSongRepo) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	song.ID = r.nextID
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}
	stored := *song
	r.songs = append(r.songs, &stored)
	return song.ID, nil
}

func (r *fakeSongRepo) GetSongByID(ctx context.Context, id int64) (*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.songs {
		if s.ID == id {
			song := *s
			return &song, nil
		}
	}
	return nil, nil
}

func (r *fakeSongRepo) GetAllSongs(ctx context.Context) ([]*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	songs := make([]*model.Song, len(r.songs))
	copy(songs, r.songs)
	sort.Slice(songs, func(i, j int) bool {
		if !songs[i].CreatedAt.Equal(songs[j].CreatedAt) {
			return songs[i].CreatedAt.After(songs[j].CreatedAt)
		}
		return songs[i].ID > songs[j].ID
	})
	return songs, nil
}

func newTestServer(t *testing.T) (*mux.Router, *fakeSongRepo) {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	repo := &fakeSongRepo{}
	handler := NewAPIHandler(repo, ingest.New(repo, store), cache.NewSongCache(nil), 50<<20)

	router := mux.NewRouter()
	router.HandleFunc("/api/songs", handler.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", handler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/upload", handler.UploadSongHandler).Methods(http.MethodPost)
	router.PathPrefix(storage.ServePrefix).Handler(NewBlobHandler(store))
	return router, repo
}

// uploadRequest builds a multipart upload with an audio file part.
func uploadRequest(t *testing.T, title, artist, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if title != "" {
		require.NoError(t, writer.WriteField("title", title))
	}
	if artist != "" {
		require.NoError(t, writer.WriteField("artist", artist))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestGetSongsEmpty(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetSongsNewestFirst(t *testing.T) {
	router, repo := newTestServer(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Inserted out of chronological order on purpose.
	for _, s := range []*model.Song{
		{Title: "Middle", Artist: "A", AudioURL: "/uploads/b.mp3", CreatedAt: base.Add(time.Minute)},
		{Title: "Newest", Artist: "A", AudioURL: "/uploads/c.mp3", CreatedAt: base.Add(time.Hour)},
		{Title: "Oldest", Artist: "A", AudioURL: "/uploads/a.mp3", CreatedAt: base},
	} {
		_, err := repo.CreateSong(context.Background(), s)
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []*model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	require.Len(t, songs, 3)
	assert.Equal(t, "Newest", songs[0].Title)
	assert.Equal(t, "Middle", songs[1].Title)
	assert.Equal(t, "Oldest", songs[2].Title)
}

func TestGetSongByID(t *testing.T) {
	router, repo := newTestServer(t)

	song := &model.Song{Title: "Test", Artist: "Artist", AudioURL: "/uploads/a.mp3"}
	id, err := repo.CreateSong(context.Background(), song)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/songs/%d", id), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Test", got.Title)
}

func TestGetSongByIDNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/999", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Song not found"}`, rec.Body.String())
}

func TestGetSongByIDInvalid(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEndToEnd(t *testing.T) {
	router, _ := newTestServer(t)

	content := bytes.Repeat([]byte{0xAB}, 2_000_000)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "Test", "Artist", "song.mp3", "audio/mpeg", content))

	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var resp struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Song    *model.Song `json:"song"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Song uploaded successfully", resp.Message)
	require.NotNil(t, resp.Song)
	assert.Equal(t, "Test", resp.Song.Title)
	assert.Equal(t, "Artist", resp.Song.Artist)
	assert.Equal(t, int64(2_000_000), resp.Song.FileSize)
	assert.Equal(t, "mp3", resp.Song.FileFormat)
	assert.Equal(t, 0, resp.Song.Duration)

	// The new song is the first element of the listing.
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/songs", nil))
	require.Equal(t, http.StatusOK, listRec.Code)

	var songs []*model.Song
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &songs))
	require.Len(t, songs, 1)
	assert.Equal(t, resp.Song.ID, songs[0].ID)

	// The blob is retrievable under its stored path with identical bytes.
	blobRec := httptest.NewRecorder()
	router.ServeHTTP(blobRec, httptest.NewRequest(http.MethodGet, resp.Song.AudioURL, nil))
	require.Equal(t, http.StatusOK, blobRec.Code)
	got, err := io.ReadAll(blobRec.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestUploadMissingFile(t *testing.T) {
	router, repo := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "Test", "Artist", "", "", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "No audio file uploaded"}`, rec.Body.String())
	assert.Empty(t, repo.songs)
}

func TestUploadMissingFields(t *testing.T) {
	router, repo := newTestServer(t)

	for _, tc := range []struct{ title, artist string }{
		{"", "Artist"},
		{"Test", ""},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, uploadRequest(t, tc.title, tc.artist, "song.mp3", "audio/mpeg", []byte("data")))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "Title and artist are required"}`, rec.Body.String())
	}
	assert.Empty(t, repo.songs)
}

func TestUploadUnsupportedMediaType(t *testing.T) {
	router, repo := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "Test", "Artist", "movie.mp4", "video/mp4", []byte("data")))

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, repo.songs)
}

func TestUploadPayloadTooLarge(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	repo := &fakeSongRepo{}
	// Tiny cap so the test does not need a 50 MiB body.
	handler := NewAPIHandler(repo, ingest.New(repo, store), cache.NewSongCache(nil), 1024)

	router := mux.NewRouter()
	router.HandleFunc("/api/upload", handler.UploadSongHandler).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "Test", "Artist", "song.mp3", "audio/mpeg", bytes.Repeat([]byte{1}, 4096)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, repo.songs)
}

func TestBlobHandlerNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/audio-missing.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
