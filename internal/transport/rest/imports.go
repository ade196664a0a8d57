package rest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nikhilit2011/arto-arrears/internal/service"
	"github.com/nikhilit2011/arto-arrears/internal/spreadsheet"
)

const maxUploadBytes = 25 << 20 // 25 MB

func (h *Handler) importNotices(w http.ResponseWriter, r *http.Request) {
	doc, name, cleanup, err := openUpload(r)
	if err != nil {
		respondUploadError(w, err)
		return
	}
	defer cleanup()

	result, err := h.noticeImport.Import(r.Context(), doc)
	if err != nil {
		var missing *spreadsheet.MissingColumnError
		if errors.As(err, &missing) {
			ErrorBadRequest(w, missing.Error())
			return
		}
		log.Printf("[HTTP] notice import %q error: %v", name, err)
		ErrorInternal(w, "import failed")
		return
	}

	Success(w, fmt.Sprintf("Import complete: %d new, %d updated.", result.Created, result.Updated), result)
}

func (h *Handler) importPayments(w http.ResponseWriter, r *http.Request) {
	mode := service.ModeBulk
	if r.URL.Query().Get("mode") == string(service.ModeImmediate) {
		mode = service.ModeImmediate
	}

	doc, name, cleanup, err := openUpload(r)
	if err != nil {
		respondUploadError(w, err)
		return
	}
	defer cleanup()

	result, err := h.paymentImport.Import(r.Context(), doc, name, mode)
	if err != nil {
		var missing *spreadsheet.MissingColumnError
		if errors.As(err, &missing) {
			ErrorBadRequest(w, missing.Error())
			return
		}
		log.Printf("[HTTP] payment import %q error: %v", name, err)
		ErrorInternal(w, "import failed")
		return
	}

	Success(w, fmt.Sprintf("Imported %d rows (matched %d).", result.Inserted, result.Matched), result)
}

// openUpload pulls the multipart "file" field into a temp file (the
// spreadsheet readers need a real path) and parses it. The returned cleanup
// removes the temp file.
func openUpload(r *http.Request) (*spreadsheet.Document, string, func(), error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", nil, &uploadError{msg: "invalid multipart form"}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", nil, &uploadError{msg: "file is required"}
	}
	defer file.Close()

	path, err := saveTemp(file, header.Filename)
	if err != nil {
		return nil, "", nil, err
	}
	cleanup := func() { _ = os.Remove(path) }

	doc, err := spreadsheet.Open(path)
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return doc, header.Filename, cleanup, nil
}

func saveTemp(file multipart.File, originalName string) (string, error) {
	tmp, err := os.CreateTemp("", "upload_*"+filepath.Ext(originalName))
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

type uploadError struct {
	msg string
}

func (e *uploadError) Error() string { return e.msg }

func respondUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	var unsupported *spreadsheet.UnsupportedFileError
	switch {
	case errors.As(err, &ue):
		ErrorBadRequest(w, ue.msg)
	case errors.As(err, &unsupported):
		ErrorBadRequest(w, unsupported.Error())
	default:
		log.Printf("[HTTP] upload error: %v", err)
		ErrorInternal(w, "failed to read upload")
	}
}
