package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tailtalk/roomsync/internal/domain"
)

// File is one local file queued for upload.
type File struct {
	Name        string
	ContentType string // optional, sniffed when empty
	Data        io.Reader
}

// Uploader turns local files into durable attachment descriptors through the
// upload collaborator. One request per file, issued concurrently; the batch
// is atomic-or-nothing.
type Uploader struct {
	baseURL    string
	credential string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(baseURL, credential string, httpClient *http.Client, logger zerolog.Logger) *Uploader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Uploader{
		baseURL:    baseURL,
		credential: credential,
		httpClient: httpClient,
		logger:     logger,
	}
}

// UploadAll uploads the batch concurrently and returns the descriptors in
// input order. Any single failure fails the whole batch and no descriptors
// are returned, so the caller's composition state stays intact for a retry.
// The kind's attachment cap is enforced before any request is made.
func (u *Uploader) UploadAll(ctx context.Context, kind domain.Kind, files []File) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if kind.MaxAttachments > 0 && len(files) > kind.MaxAttachments {
		return nil, domain.ErrTooManyAttachments
	}

	out := make([]domain.Attachment, len(files))
	g, ctx := errgroup.WithContext(ctx)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			att, err := u.uploadOne(ctx, f)
			if err != nil {
				return fmt.Errorf("upload %q: %w", f.Name, err)
			}
			out[i] = att
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		u.logger.Warn().Err(err).Int("batch_size", len(files)).Msg("upload batch failed")
		return nil, err
	}
	return out, nil
}

func (u *Uploader) uploadOne(ctx context.Context, f File) (domain.Attachment, error) {
	contentType, data, err := resolveContentType(f)
	if err != nil {
		return domain.Attachment{}, err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, f.Name))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return domain.Attachment{}, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return domain.Attachment{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.Attachment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/api/v1/uploads", body)
	if err != nil {
		return domain.Attachment{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.credential != "" {
		req.Header.Set("Authorization", "Bearer "+u.credential)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return domain.Attachment{}, err
	}
	defer resp.Body.Close()

	var env struct {
		Success bool              `json:"success"`
		Data    domain.Attachment `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return domain.Attachment{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK || !env.Success {
		if env.Error != nil {
			return domain.Attachment{}, fmt.Errorf("api error %s: %s", env.Error.Code, env.Error.Message)
		}
		return domain.Attachment{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return env.Data, nil
}

// resolveContentType prefers the declared type, then the file extension,
// then content sniffing. Returns a reader equivalent to f.Data.
func resolveContentType(f File) (string, io.Reader, error) {
	if f.ContentType != "" {
		return f.ContentType, f.Data, nil
	}
	if byExt := mime.TypeByExtension(filepath.Ext(f.Name)); byExt != "" {
		return byExt, f.Data, nil
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(f.Data, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	return detected.String(), io.MultiReader(bytes.NewReader(head), f.Data), nil
}
