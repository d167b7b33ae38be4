package domain

import "strings"

type Scope string

const (
	ScopeVerified Scope = "verified"
	ScopeUser     Scope = "user"
	ScopeAll      Scope = "all"
)

// ParseScope falls back to ScopeVerified for empty or unknown input.
func ParseScope(raw string) Scope {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case ScopeUser:
		return ScopeUser
	case ScopeAll:
		return ScopeAll
	default:
		return ScopeVerified
	}
}

const TypeAll = "all"

// Filter is the operator's current selection on the documents page.
type Filter struct {
	Scope  Scope
	Type   string
	Search string
}

func DefaultFilter() Filter {
	return Filter{Scope: ScopeVerified, Type: TypeAll}
}

type ListState string

const (
	ListIdle    ListState = "idle"
	ListLoading ListState = "loading"
	ListLoaded  ListState = "loaded"
	ListError   ListState = "error"
)

type ListSnapshot struct {
	State     ListState
	Documents []Document
	Error     string
}

type UploadState string

const (
	UploadIdle          UploadState = "idle"
	UploadFileSelected  UploadState = "file-selected"
	UploadSubmitting    UploadState = "submitting"
	UploadAcceptedState UploadState = "accepted"
	UploadFailed        UploadState = "error"
)

// UploadRequest is a file upload as sent to the corpus backend.
type UploadRequest struct {
	Filename   string
	Content    []byte
	Title      string
	SourceType SourceType
	Language   string
}

type SelectedFile struct {
	Name string
	Size int64
}

type UploadSnapshot struct {
	State      UploadState
	File       *SelectedFile
	Title      string
	SourceType SourceType
	Language   string
	Result     *UploadAccepted
	Error      string
}

// CanSubmit mirrors the submit button: a file, a non-blank title and nothing in flight.
func (s UploadSnapshot) CanSubmit() bool {
	return s.File != nil && strings.TrimSpace(s.Title) != "" && s.State != UploadSubmitting
}

type IngestSnapshot struct {
	Submitting bool
	Request    IngestRequest
	Result     *IngestResult
	Error      string
}

type TypeCount struct {
	Type     SourceTypeInfo
	Count    int
	BarWidth float64
}

type Dashboard struct {
	Status        string
	Total         int
	VerifiedCount int
	UserCount     int
	TypeCounts    []TypeCount
	Recent        []Document
	FetchError    string
}

// DistinctTypes is the number of source types present among verified documents.
func (d Dashboard) DistinctTypes() int {
	return len(d.TypeCounts)
}
