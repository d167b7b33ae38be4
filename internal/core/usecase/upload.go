package usecase

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
)

const DefaultMaxUploadBytes int64 = 50 << 20

var acceptedExtensions = map[string]struct{}{
	"pdf":  {},
	"json": {},
	"txt":  {},
}

// UploadForm is the upload page state machine:
// idle -> file-selected -> submitting -> accepted | error.
type UploadForm struct {
	api      ports.CorpusAPI
	audit    ports.AuditSink
	maxBytes int64

	mu         sync.Mutex
	state      domain.UploadState
	fileName   string
	content    []byte
	hasFile    bool
	title      string
	sourceType domain.SourceType
	language   string
	result     *domain.UploadAccepted
	errMessage string
	generation uint64
}

func NewUploadForm(api ports.CorpusAPI, audit ports.AuditSink, maxBytes int64) *UploadForm {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	f := &UploadForm{api: api, audit: audit, maxBytes: maxBytes}
	f.resetLocked()
	return f
}

// SelectFile fills the file slot. Rejected files leave the slot as it was.
func (f *UploadForm) SelectFile(name string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == domain.UploadSubmitting {
		return domain.WrapError(domain.ErrConflict, "select file", errors.New("upload in progress"))
	}
	if err := ValidateUploadFile(name, int64(len(content)), f.maxBytes); err != nil {
		f.errMessage = domain.UserMessage(err)
		return err
	}

	f.fileName = path.Base(strings.ReplaceAll(name, "\\", "/"))
	f.content = content
	f.hasFile = true
	f.errMessage = ""
	f.result = nil
	f.state = domain.UploadFileSelected
	if f.title == "" {
		f.title = TitleFromFilename(f.fileName)
	}
	return nil
}

func (f *UploadForm) ClearFile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == domain.UploadSubmitting {
		return
	}
	f.fileName = ""
	f.content = nil
	f.hasFile = false
	if f.state == domain.UploadFileSelected {
		f.state = domain.UploadIdle
	}
}

func (f *UploadForm) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
}

func (f *UploadForm) SetSourceType(sourceType domain.SourceType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sourceType = sourceType
}

func (f *UploadForm) SetLanguage(language string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.language = language
}

// Submit uploads the selected file. Local preconditions are checked before any network call;
// on failure the form keeps its fields so it can be resubmitted.
func (f *UploadForm) Submit(ctx context.Context) (*domain.UploadAccepted, error) {
	f.mu.Lock()
	if f.state == domain.UploadSubmitting {
		f.mu.Unlock()
		return nil, domain.WrapError(domain.ErrConflict, "upload document", errors.New("upload in progress"))
	}
	if !f.hasFile {
		err := domain.NewValidationError("choose a file")
		f.errMessage = err.Message
		f.mu.Unlock()
		return nil, err
	}
	title := strings.TrimSpace(f.title)
	if title == "" {
		err := domain.NewValidationError("enter a title")
		f.errMessage = err.Message
		f.mu.Unlock()
		return nil, err
	}

	req := domain.UploadRequest{
		Filename:   f.fileName,
		Content:    f.content,
		Title:      title,
		SourceType: f.sourceType,
		Language:   f.language,
	}
	f.state = domain.UploadSubmitting
	f.errMessage = ""
	gen := f.generation
	f.mu.Unlock()

	accepted, err := f.api.UploadDocument(ctx, req)
	recordAudit(ctx, f.audit, domain.AuditUpload, "", title, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return accepted, err
	}
	if err != nil {
		f.state = domain.UploadFailed
		f.errMessage = domain.UserMessage(err)
		return nil, err
	}
	f.state = domain.UploadAcceptedState
	f.result = accepted
	return accepted, nil
}

// Reset returns the form to idle with default selections, whatever state it was in.
func (f *UploadForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *UploadForm) resetLocked() {
	f.generation++
	f.state = domain.UploadIdle
	f.fileName = ""
	f.content = nil
	f.hasFile = false
	f.title = ""
	f.sourceType = domain.DefaultSourceType
	f.language = domain.DefaultLanguage
	f.result = nil
	f.errMessage = ""
}

func (f *UploadForm) Snapshot() domain.UploadSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := domain.UploadSnapshot{
		State:      f.state,
		Title:      f.title,
		SourceType: f.sourceType,
		Language:   f.language,
		Error:      f.errMessage,
	}
	if f.hasFile {
		snap.File = &domain.SelectedFile{Name: f.fileName, Size: int64(len(f.content))}
	}
	if f.result != nil {
		accepted := *f.result
		snap.Result = &accepted
	}
	return snap
}

// ValidateUploadFile applies the client-side format and size hints.
func ValidateUploadFile(name string, size, maxBytes int64) error {
	if _, ok := acceptedExtensions[fileExtension(name)]; !ok {
		return domain.NewValidationError("supported formats: PDF, JSON, TXT")
	}
	if maxBytes > 0 && size > maxBytes {
		return domain.NewValidationError("file is larger than %s", FormatSize(maxBytes))
	}
	return nil
}

// TitleFromFilename strips a recognized extension from the file name.
func TitleFromFilename(name string) string {
	ext := fileExtension(name)
	if _, ok := acceptedExtensions[ext]; !ok {
		return name
	}
	return name[:len(name)-len(ext)-1]
}

func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
