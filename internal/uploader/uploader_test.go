package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tailtalk/roomsync/internal/domain"
)

func uploadHandler(t *testing.T, fail func(filename string) bool) (http.HandlerFunc, *int64) {
	var requests int64
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		if r.URL.Path != "/api/v1/uploads" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		if fail != nil && fail(header.Filename) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"disk full"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": domain.Attachment{
				URL:      "https://cdn.example.com/" + header.Filename,
				Name:     header.Filename,
				MimeType: header.Header.Get("Content-Type"),
			},
		})
	}, &requests
}

func TestUploadAllReturnsDescriptorsInOrder(t *testing.T) {
	h, _ := uploadHandler(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	u := New(srv.URL, "tok", nil, zerolog.Nop())
	files := []File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: strings.NewReader("aaa")},
		{Name: "b.png", ContentType: "image/png", Data: strings.NewReader("bbb")},
		{Name: "c.gif", ContentType: "image/gif", Data: strings.NewReader("ccc")},
	}
	atts, err := u.UploadAll(context.Background(), domain.KindChat, files)
	if err != nil {
		t.Fatalf("upload batch: %v", err)
	}
	if len(atts) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(atts))
	}
	for i, name := range []string{"a.jpg", "b.png", "c.gif"} {
		if atts[i].Name != name {
			t.Fatalf("descriptor %d out of order: %+v", i, atts[i])
		}
	}
}

func TestUploadAllIsAtomic(t *testing.T) {
	h, _ := uploadHandler(t, func(filename string) bool { return filename == "b.png" })
	srv := httptest.NewServer(h)
	defer srv.Close()

	u := New(srv.URL, "tok", nil, zerolog.Nop())
	files := []File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: strings.NewReader("aaa")},
		{Name: "b.png", ContentType: "image/png", Data: strings.NewReader("bbb")},
	}
	atts, err := u.UploadAll(context.Background(), domain.KindChat, files)
	if err == nil {
		t.Fatalf("one failed upload must fail the batch")
	}
	if atts != nil {
		t.Fatalf("failed batch must return no descriptors, got %+v", atts)
	}
	if !strings.Contains(err.Error(), "b.png") {
		t.Fatalf("error should name the failed file, got %v", err)
	}
}

func TestUploadAllEnforcesCapBeforeRequests(t *testing.T) {
	h, requests := uploadHandler(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	u := New(srv.URL, "tok", nil, zerolog.Nop())
	files := make([]File, 4)
	for i := range files {
		files[i] = File{Name: fmt.Sprintf("f%d.jpg", i), ContentType: "image/jpeg", Data: strings.NewReader("x")}
	}
	if _, err := u.UploadAll(context.Background(), domain.KindChat, files); !errors.Is(err, domain.ErrTooManyAttachments) {
		t.Fatalf("expected ErrTooManyAttachments, got %v", err)
	}
	if got := atomic.LoadInt64(requests); got != 0 {
		t.Fatalf("cap must be enforced before any request, saw %d", got)
	}

	// The same batch is fine for the uncapped review kind.
	for i := range files {
		files[i].Data = strings.NewReader("x")
	}
	if _, err := u.UploadAll(context.Background(), domain.KindReview, files); err != nil {
		t.Fatalf("review batch of 4: %v", err)
	}
}

func TestUploadAllEmptyBatch(t *testing.T) {
	u := New("http://unused.invalid", "", nil, zerolog.Nop())
	atts, err := u.UploadAll(context.Background(), domain.KindChat, nil)
	if err != nil || atts != nil {
		t.Fatalf("empty batch is a no-op, got %v %v", atts, err)
	}
}

func TestContentTypeSniffedWhenUndeclared(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		file.Close()
		gotType = header.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"url":"https://cdn.example.com/x"}}`))
	}))
	defer srv.Close()

	u := New(srv.URL, "", nil, zerolog.Nop())
	// PNG magic bytes, no extension, no declared type.
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)
	if _, err := u.UploadAll(context.Background(), domain.KindChat, []File{
		{Name: "snapshot", Data: strings.NewReader(png)},
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotType != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", gotType)
	}
}
