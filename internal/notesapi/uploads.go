package notesapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/models"
)

const pdfContentType string = "application/pdf"

// FileUpload is a file to be stored in the object storage behind the backend.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	// NoteID is the note the file is embedded in, PDFs are indexed for the chatbot when it is set
	NoteID string
}

type UploadResult struct {
	ObjectKey string
	URL       string
}

type UploadService struct {
	api          authclient.Doer
	httpClient   *http.Client
	maxFileSize  int64
	allowedTypes []string
	background   sync.WaitGroup
}

type UploadServiceOption func(*UploadService) error

func WithUploadsConfig(uploadsConfig config.UploadsConfig) UploadServiceOption {
	return func(u *UploadService) error {
		err := uploadsConfig.Validate()
		if err != nil {
			return err
		}
		u.maxFileSize = uploadsConfig.MaxFileSizeBytes
		u.allowedTypes = uploadsConfig.AllowedTypes
		return nil
	}
}

// WithStorageHTTPClient sets the client used for the direct uploads to the presigned URLs.
func WithStorageHTTPClient(httpClient *http.Client) UploadServiceOption {
	return func(u *UploadService) error {
		u.httpClient = httpClient
		return nil
	}
}

func NewUploadService(api authclient.Doer, options ...UploadServiceOption) (*UploadService, error) {
	u := &UploadService{
		api:          api,
		httpClient:   http.DefaultClient,
		maxFileSize:  config.DefaultMaxFileSizeBytes,
		allowedTypes: config.DefaultAllowedUploadTypes,
	}
	for _, opt := range options {
		err := opt(u)
		if err != nil {
			return &UploadService{}, err
		}
	}
	return u, nil
}

// Validate checks the file before anything is sent.
func (u *UploadService) Validate(name, contentType string, size int64) error {
	if size > u.maxFileSize {
		return fmt.Errorf("%s is %d bytes, the limit is %d: %w", name, size, u.maxFileSize, gwerrors.ErrFileTooLarge)
	}
	if !slices.Contains(u.allowedTypes, contentType) {
		return fmt.Errorf("%s has the type %q: %w", name, contentType, gwerrors.ErrUnsupportedFileType)
	}
	return nil
}

func (u *UploadService) GenerateUploadURL(ctx context.Context, req models.UploadURLRequest) (models.UploadURL, error) {
	var output models.UploadURL
	err := callJSON(ctx, u.api, http.MethodPost, "/upload/generate-upload-url", req, &output)
	if err != nil {
		return models.UploadURL{}, err
	}
	if output.UploadURL == "" || output.ObjectKey == "" {
		return models.UploadURL{}, fmt.Errorf("the backend did not return an upload url and object key")
	}
	return output, nil
}

// PutObject uploads the file straight to the storage. The presigned URL carries its own
// authorization so the request does not go through the gateway.
func (u *UploadService) PutObject(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("the file upload failed with status %d", resp.StatusCode)
	}
	return nil
}

// ResolveURL returns a short lived URL for displaying the object.
func (u *UploadService) ResolveURL(ctx context.Context, key string) (string, error) {
	var output models.ResolvedURL
	req := authclient.Request{Method: http.MethodGet, Path: "/upload/get-image-url", Query: url.Values{"key": []string{key}}}
	err := call(ctx, u.api, req, &output)
	return output.URL, err
}

// UploadFile validates, uploads and resolves the file. PDFs attached to a note are handed to
// the chatbot for indexing in the background, failures there are only logged.
func (u *UploadService) UploadFile(ctx context.Context, file FileUpload) (UploadResult, error) {
	err := u.Validate(file.Name, file.ContentType, file.Size)
	if err != nil {
		return UploadResult{}, err
	}
	target, err := u.GenerateUploadURL(ctx, models.UploadURLRequest{
		Filename:    file.Name,
		ContentType: file.ContentType,
		FileSize:    file.Size,
	})
	if err != nil {
		return UploadResult{}, err
	}
	err = u.PutObject(ctx, target.UploadURL, file.ContentType, file.Body, file.Size)
	if err != nil {
		return UploadResult{}, err
	}
	resolved, err := u.ResolveURL(ctx, target.ObjectKey)
	if err != nil {
		return UploadResult{}, err
	}
	if file.ContentType == pdfContentType && file.NoteID != "" {
		u.processPDF(ctx, target.ObjectKey, file.NoteID)
	}
	return UploadResult{ObjectKey: target.ObjectKey, URL: resolved}, nil
}

func (u *UploadService) processPDF(ctx context.Context, objectKey, noteID string) {
	ctx = context.WithoutCancel(ctx)
	u.background.Add(1)
	go func() {
		defer u.background.Done()
		body := models.ProcessPDFRequest{ObjectKey: objectKey, NoteID: noteID}
		err := callJSON(ctx, u.api, http.MethodPost, "/chatbot/upload/process-pdf", body, nil)
		if err != nil {
			slog.Warn("UPLOADS", "message", "requesting the pdf processing failed", "objectKey", objectKey, "error", err)
		}
	}()
}

// Wait blocks until the background requests have finished.
func (u *UploadService) Wait() {
	u.background.Wait()
}
