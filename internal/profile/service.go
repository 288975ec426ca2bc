package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"iris-backend/internal/codec"
	"iris-backend/internal/extract"
	"iris-backend/internal/llm"
	"iris-backend/internal/pdfdoc"
	"iris-backend/internal/shared/metrics"
	"iris-backend/internal/shared/storage/object"
	"iris-backend/internal/shared/telemetry"
	"iris-backend/internal/xmpmeta"
)

// MetadataStore is the metadata store adapter seam, satisfied by
// xmpmeta.Adapter.
type MetadataStore interface {
	Read(path string) (xmpmeta.Fields, bool, error)
	Write(path string, f xmpmeta.Fields) error
}

// Service is the workflow controller. It drives one document per session
// through extract-or-reuse, edit and commit.
type Service struct {
	Store         object.ObjectStore
	Sessions      Repo
	LLM           llm.Client
	Meta          MetadataStore
	WorkDir       string
	SchemaVersion string

	// Inspect and Text are seams for the PDF collaborators, overridable
	// in tests.
	Inspect func(path string) (int, error)
	Text    func(ctx context.Context, path string) (string, error)
}

// NewService constructs a Service with the default collaborators wired.
func NewService(store object.ObjectStore, sessions Repo, client llm.Client, workDir, schemaVersion string) *Service {
	return &Service{
		Store:         store,
		Sessions:      sessions,
		LLM:           client,
		Meta:          xmpmeta.Adapter{},
		WorkDir:       workDir,
		SchemaVersion: schemaVersion,
		Inspect:       pdfdoc.Inspect,
		Text:          extract.VisibleTextFromFile,
	}
}

// Open stores the uploaded document, validates it and reads its metadata
// slot. An existing well-formed payload becomes the working record and no
// extraction is needed; that reuse is the whole point of the format.
func (s *Service) Open(ctx context.Context, fileName string, r io.Reader) (Session, error) {
	if strings.TrimSpace(fileName) == "" {
		return Session{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	id := uuid.NewString()
	storageKey, _, mimeType, err := s.Store.Save(ctx, id, fileName, r)
	if err != nil {
		return Session{}, fmt.Errorf("store upload: %w", err)
	}
	if mimeType != "application/pdf" {
		s.discardStored(storageKey)
		return Session{}, fmt.Errorf("%w: only PDF resumes are supported, got %s", ErrInvalidInput, mimeType)
	}

	workPath, err := s.materialize(ctx, id, storageKey)
	if err != nil {
		s.discardStored(storageKey)
		return Session{}, err
	}
	// A failed open must not leave the working copy or the stored object
	// behind.
	fail := func(err error) (Session, error) {
		_ = os.Remove(workPath)
		s.discardStored(storageKey)
		return Session{}, err
	}

	pages, err := s.Inspect(workPath)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	sess := Session{
		ID:           id,
		FileName:     fileName,
		StorageKey:   storageKey,
		WorkPath:     workPath,
		PageCount:    pages,
		PayloadState: PayloadAbsent,
		State:        StateOpened,
		CreatedAt:    time.Now().UTC(),
	}

	fields, ok, err := s.Meta.Read(workPath)
	if err != nil {
		return fail(fmt.Errorf("read metadata: %w", err))
	}
	if ok {
		switch fields.Format {
		case codec.FormatJSONZlibBase64:
			record, decodeErr := codec.Decode(fields.Payload)
			if decodeErr != nil {
				sess.PayloadState = PayloadCorrupt
				sess.PayloadError = decodeErr.Error()
			} else {
				sess.PayloadState = PayloadDecoded
				sess.Record = record
				metrics.IncPayloadReuse()
			}
		default:
			// Unrecognized format: treat as opaque, never guess a decode.
			sess.PayloadState = PayloadOpaque
			sess.PayloadError = fmt.Sprintf("unrecognized payload format %q", fields.Format)
		}
	}

	if err := s.Sessions.Create(ctx, sess); err != nil {
		return fail(err)
	}

	telemetry.Info("session.opened", map[string]any{
		"session_id":    sess.ID,
		"file_name":     sess.FileName,
		"page_count":    sess.PageCount,
		"payload_state": sess.PayloadState,
	})
	return sess, nil
}

// Extract derives the document's visible text and asks the extraction
// service for a structured record. Only valid when no decoded payload
// already supplies the record; the service is never called twice for a
// document that carries its own profile.
func (s *Service) Extract(ctx context.Context, id string) (Session, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateSaved {
		return Session{}, ErrSessionSaved
	}
	if sess.PayloadState == PayloadDecoded {
		return Session{}, ErrRecordPresent
	}

	metrics.IncExtractionStarted()
	start := time.Now()

	text, err := s.Text(ctx, sess.WorkPath)
	if err != nil {
		metrics.IncExtractionFailed()
		return Session{}, fmt.Errorf("extract text: %w", err)
	}

	raw, err := s.LLM.ExtractProfile(ctx, llm.ExtractInput{
		ResumeText:    text,
		SchemaVersion: s.SchemaVersion,
	})
	if err != nil {
		metrics.IncExtractionFailed()
		if errors.Is(err, llm.ErrNotConfigured) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("%w: %v", ErrExtractionService, err)
	}

	var record codec.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		metrics.IncExtractionFailed()
		return Session{}, fmt.Errorf("%w: response is not a JSON object: %v", ErrExtractionService, err)
	}

	sess.Record = record
	if err := s.Sessions.Update(ctx, sess); err != nil {
		return Session{}, err
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("session.extracted", map[string]any{
		"session_id":  sess.ID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return sess, nil
}

// Edit replaces the working record with the submitted raw JSON. Invalid
// input leaves the previous record and any committed payload untouched.
func (s *Service) Edit(ctx context.Context, id string, raw []byte) (Session, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateSaved {
		return Session{}, ErrSessionSaved
	}

	var record codec.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	if record == nil {
		return Session{}, fmt.Errorf("%w: top-level value must be an object", ErrInvalidEdit)
	}

	sess.Record = record
	if err := s.Sessions.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Commit encodes the working record and writes the metadata triple in one
// atomic update, then persists the updated document to the object store.
// Encoding failures happen before any file is touched; cancellation before
// the write leaves the document exactly as it was.
func (s *Service) Commit(ctx context.Context, id string) (Session, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateSaved {
		return Session{}, ErrSessionSaved
	}
	if sess.Record == nil {
		return Session{}, ErrNoRecord
	}

	payload, err := codec.Encode(sess.Record)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	fields := xmpmeta.Fields{
		Version: xmpmeta.Version,
		Format:  codec.FormatJSONZlibBase64,
		Payload: payload,
	}
	if err := s.Meta.Write(sess.WorkPath, fields); err != nil {
		return Session{}, err
	}

	if err := s.persistCommitted(ctx, sess); err != nil {
		telemetry.Error("session.persist_failed", map[string]any{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}

	sess.State = StateSaved
	sess.SavedAt = time.Now().UTC()
	// The document now carries the payload and is the source of truth.
	// The session record is bookkeeping: update it with a fresh context and
	// report the commit as done even if the update fails, so a retry cannot
	// stack a redundant revision onto an already-committed document.
	if err := s.Sessions.Update(context.Background(), sess); err != nil {
		telemetry.Error("session.seal_failed", map[string]any{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}

	metrics.IncEmbedCommitted()
	telemetry.Info("session.committed", map[string]any{
		"session_id":    sess.ID,
		"payload_bytes": len(payload),
	})
	return sess, nil
}

// Download streams the current working document.
func (s *Service) Download(ctx context.Context, id string) (io.ReadCloser, string, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(sess.WorkPath)
	if err != nil {
		return nil, "", fmt.Errorf("open working copy: %w", err)
	}
	return f, sess.FileName, nil
}

// Get returns the session by ID.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.Sessions.Get(ctx, id)
}

// Close ends a session and removes its working copy.
func (s *Service) Close(ctx context.Context, id string) error {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Sessions.Delete(ctx, id); err != nil {
		return err
	}
	if err := os.Remove(sess.WorkPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove working copy: %w", err)
	}
	return nil
}

// materialize copies the stored object to a working file under WorkDir,
// removing the partial file on any failure.
func (s *Service) materialize(ctx context.Context, id, storageKey string) (string, error) {
	if err := os.MkdirAll(s.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	workPath := filepath.Join(s.WorkDir, id+".pdf")

	src, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(workPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create working copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(workPath)
		return "", fmt.Errorf("write working copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(workPath)
		return "", fmt.Errorf("close working copy: %w", err)
	}
	return workPath, nil
}

type keyRemover interface {
	Remove(ctx context.Context, storageKey string) error
}

// discardStored removes an orphaned upload after a failed open. Best effort
// with a fresh context: the open may have failed on cancellation, and the
// cleanup should still run.
func (s *Service) discardStored(storageKey string) {
	remover, ok := s.Store.(keyRemover)
	if !ok {
		return
	}
	if err := remover.Remove(context.Background(), storageKey); err != nil {
		telemetry.Error("session.discard_failed", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
	}
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// persistCommitted uploads the committed document next to the original in
// the object store. Best effort: the working copy already holds the result.
func (s *Service) persistCommitted(ctx context.Context, sess Session) error {
	saver, ok := s.Store.(keySaver)
	if !ok {
		return errors.New("object store does not support SaveWithKey")
	}
	f, err := os.Open(sess.WorkPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = saver.SaveWithKey(ctx, sess.StorageKey+".embedded.pdf", "application/pdf", f)
	return err
}
