package model

import "time"

// Song represents one audio track in the music library.
type Song struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Duration   int       `json:"duration"`   // Duration in seconds; recorded as 0 until probing is implemented
	AudioURL   string    `json:"audioUrl"`   // Relative path to the stored audio, served under /uploads/
	FileSize   int64     `json:"fileSize"`   // Size of the uploaded file in bytes
	FileFormat string    `json:"fileFormat"` // Lowercase file extension without the leading dot
	CreatedAt  time.Time `json:"createdAt"`
}
