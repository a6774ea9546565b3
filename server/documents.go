package server

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"pdfcraft-gateway/document"

	"github.com/rs/zerolog"
)

type documentHandlers struct {
	docs      *document.Processor
	maxUpload int64
	log       zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type pageCountResponse struct {
	Pages int `json:"pages"`
}

// errUpload marca erros de formulário (400).
var errUpload = errors.New("invalid upload")

func (h *documentHandlers) parse(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return fmt.Errorf("%w: %v", errUpload, err)
	}
	return nil
}

func readFiles(headers []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errUpload, fh.Filename, err)
		}
		b, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errUpload, fh.Filename, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// files lê o campo `field` (um ou mais arquivos).
func (h *documentHandlers) files(w http.ResponseWriter, r *http.Request, field string) ([][]byte, []string, error) {
	if err := h.parse(w, r); err != nil {
		return nil, nil, err
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil, fmt.Errorf("%w: missing %q", errUpload, field)
	}
	data, err := readFiles(headers)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(headers))
	for i, fh := range headers {
		names[i] = fh.Filename
	}
	return data, names, nil
}

func (h *documentHandlers) merge(w http.ResponseWriter, r *http.Request) {
	docs, _, err := h.files(w, r, "files")
	if err != nil {
		h.fail(w, "merge", err)
		return
	}
	out, err := h.docs.Merge(docs)
	if err != nil {
		h.fail(w, "merge", err)
		return
	}
	writePDF(w, "merged.pdf", out)
}

// split aceita `pages` como lista de índices base 0 separados por vírgula.
func (h *documentHandlers) split(w http.ResponseWriter, r *http.Request) {
	docs, names, err := h.files(w, r, "file")
	if err != nil {
		h.fail(w, "split", err)
		return
	}
	pages, err := parsePages(r.FormValue("pages"))
	if err != nil {
		h.fail(w, "split", err)
		return
	}

	parts, err := h.docs.Split(docs[0], pages)
	if err != nil {
		h.fail(w, "split", err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(names[0]), filepath.Ext(names[0]))
	if base == "" || base == "." {
		base = "document"
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_pages.zip"))
	zw := zip.NewWriter(w)
	for i, part := range parts {
		fw, err := zw.Create(fmt.Sprintf("%s_page_%d.pdf", base, i+1))
		if err != nil {
			h.log.Error().Err(err).Msg("split zip entry failed")
			return
		}
		if _, err := fw.Write(part); err != nil {
			h.log.Error().Err(err).Msg("split zip write failed")
			return
		}
	}
	if err := zw.Close(); err != nil {
		h.log.Error().Err(err).Msg("split zip close failed")
	}
}

func (h *documentHandlers) compress(w http.ResponseWriter, r *http.Request) {
	docs, _, err := h.files(w, r, "file")
	if err != nil {
		h.fail(w, "compress", err)
		return
	}
	out, err := h.docs.Compress(docs[0])
	if err != nil {
		h.fail(w, "compress", err)
		return
	}
	writePDF(w, "compressed.pdf", out)
}

func (h *documentHandlers) pageCount(w http.ResponseWriter, r *http.Request) {
	docs, _, err := h.files(w, r, "file")
	if err != nil {
		h.fail(w, "page-count", err)
		return
	}
	n, err := h.docs.PageCount(docs[0])
	if err != nil {
		h.fail(w, "page-count", err)
		return
	}
	writeJSON(w, http.StatusOK, pageCountResponse{Pages: n})
}

func (h *documentHandlers) imagesToPDF(w http.ResponseWriter, r *http.Request) {
	imgs, _, err := h.files(w, r, "files")
	if err != nil {
		h.fail(w, "images-to-pdf", err)
		return
	}
	out, err := h.docs.ImagesToPDF(imgs)
	if err != nil {
		h.fail(w, "images-to-pdf", err)
		return
	}
	writePDF(w, "images.pdf", out)
}

func parsePages(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: pages: %q is not a page index", errUpload, part)
		}
		pages = append(pages, n)
	}
	return pages, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrEncrypted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUpload),
		errors.Is(err, document.ErrNoInput),
		errors.Is(err, document.ErrInvalidDocument),
		errors.Is(err, document.ErrInvalidImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *documentHandlers) fail(w http.ResponseWriter, operation string, err error) {
	status := statusFor(err)
	ev := h.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(err).Str("operation", operation).Int("status", status).Msg("document operation failed")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
