package domain

type SourceType string

const (
	SourceQuran   SourceType = "quran"
	SourceHadith  SourceType = "hadith"
	SourceTafsir  SourceType = "tafsir"
	SourceFiqh    SourceType = "fiqh"
	SourceAqeedah SourceType = "aqeedah"
	SourceSeerah  SourceType = "seerah"
	SourceBook    SourceType = "book"
)

// Document is the corpus backend's view of one indexed source.
type Document struct {
	ID         string            `json:"id" yaml:"id"`
	Title      string            `json:"title" yaml:"title"`
	SourceType SourceType        `json:"source_type" yaml:"source_type"`
	Language   string            `json:"language" yaml:"language"`
	Metadata   map[string]string `json:"metadata" yaml:"metadata,omitempty"`
	UserID     string            `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	CreatedAt  string            `json:"created_at" yaml:"created_at"`
}

// Verified reports whether the document is curated system content.
func (d Document) Verified() bool {
	return d.UserID == ""
}

type UploadAccepted struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
	Title   string `json:"title" yaml:"title"`
}

type IngestRequest struct {
	Title      string            `json:"title"`
	SourceType SourceType        `json:"source_type"`
	Language   string            `json:"language"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type IngestResult struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Title      string `json:"title" yaml:"title"`
	ChunkCount int    `json:"chunk_count" yaml:"chunk_count"`
}

// ServerStatus is the payload of the liveness and readiness probes.
type ServerStatus struct {
	Status string `json:"status" yaml:"status"`
}

const (
	StatusReady       = "ready"
	StatusUnavailable = "unavailable"
	StatusLoading     = "loading"
)
