// seehuhn.de/go/pdfmerge - a library for merging PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"seehuhn.de/go/pdfmerge/internal/buildinfo"
	"seehuhn.de/go/pdfmerge/merge"
	"seehuhn.de/go/pdfmerge/metadata"
	"seehuhn.de/go/pdfmerge/pagetree"
	"seehuhn.de/go/pdfmerge/pdf"
)

// maxMemory is the part of a multipart form kept in memory.  Larger
// uploads are spooled to temporary files.
const maxMemory = 32 << 20

// upload is a file received in a multipart form.
type upload struct {
	name string
	data []byte
}

// errorResponse is the JSON body sent when a request fails.
type errorResponse struct {
	Error string `json:"error"`
	Index *int   `json:"index,omitempty"`
	File  string `json:"file,omitempty"`
}

// requestError is an error which is the client's fault.
type requestError struct {
	status int
	msg    string
}

func (err *requestError) Error() string {
	return err.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	files, err := readUploads(r, "files")
	if err != nil {
		s.fail(w, r, err, nil)
		return
	}
	if len(files) < s.cfg.Merge.MinFiles {
		s.fail(w, r, badRequest("at least %d files are required, got %d",
			s.cfg.Merge.MinFiles, len(files)), files)
		return
	}

	opt := &merge.Options{
		SkipFeatureCheck: !s.cfg.Merge.FeatureCheck,
		Lenient:          s.cfg.Merge.Lenient,
		Workers:          s.cfg.Merge.Workers,
		Logger:           s.log.With(zap.String("id", requestID(r))),
	}
	if title := r.FormValue("title"); title != "" {
		opt.Metadata = &metadata.Info{
			Title:    title,
			Producer: buildinfo.Short("pdfmerge"),
			ModDate:  start,
		}
	}

	bufs := make([][]byte, len(files))
	for i, f := range files {
		bufs[i] = f.data
	}
	docs, err := merge.Load(r.Context(), bufs, opt)
	if err != nil {
		s.fail(w, r, err, files)
		return
	}
	merged, err := merge.Documents(docs, opt)
	if err != nil {
		s.fail(w, r, err, files)
		return
	}
	numPages, _ := pagetree.NumPages(merged)
	out, err := merged.Bytes(&pdf.WriterOptions{XRef: opt.XRef})
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", merge.ErrSerialization, err), files)
		return
	}

	s.metrics.merges.WithLabelValues(resultOK).Inc()
	s.metrics.pages.Add(float64(numPages))
	s.metrics.duration.Observe(time.Since(start).Seconds())

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", `attachment; filename="merged.pdf"`)
	h.Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(out)
	if err != nil {
		s.log.Debug("writing response", zap.Error(err))
	}
}

// countResponse is the JSON body returned by the count endpoint.
type countResponse struct {
	Filename string       `json:"filename"`
	Pages    int          `json:"pages"`
	Sizes    [][2]float64 `json:"sizes"`
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	files, err := readUploads(r, "file")
	if err != nil {
		s.failCount(w, r, err, nil)
		return
	}
	if len(files) != 1 {
		s.failCount(w, r, badRequest("expected one file, got %d", len(files)), files)
		return
	}
	file := files[0]

	sizes, ok := s.counts.Get(file.data)
	if ok {
		s.metrics.cacheHits.Inc()
	} else {
		opt := &merge.Options{
			Lenient: s.cfg.Merge.Lenient,
			Logger:  s.log,
		}
		docs, err := merge.Load(r.Context(), [][]byte{file.data}, opt)
		if err != nil {
			s.failCount(w, r, err, files)
			return
		}
		sizes, err = pagetree.Sizes(docs[0])
		if err != nil && !merge.IsPageRootError(err) {
			err = fmt.Errorf("%w: %w", merge.ErrUnparseable, err)
		}
		if err != nil {
			s.failCount(w, r, err, files)
			return
		}
		s.counts.Add(file.data, sizes)
	}

	resp := &countResponse{
		Filename: file.name,
		Pages:    len(sizes),
		Sizes:    make([][2]float64, len(sizes)),
	}
	for i, size := range sizes {
		resp.Sizes[i] = [2]float64{size.Width, size.Height}
	}
	writeJSON(w, http.StatusOK, resp)
}

// readUploads returns the files uploaded in the given field of a
// multipart form, in the order they were sent.  Every file must be a PDF
// file.
func readUploads(r *http.Request, field string) ([]*upload, error) {
	err := r.ParseMultipartForm(maxMemory)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("request body larger than %d bytes", tooLarge.Limit),
			}
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}

	var res []*upload
	for _, fh := range r.MultipartForm.File[field] {
		data, err := readPart(fh)
		if err != nil {
			return nil, badRequest("%s: %v", fh.Filename, err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return nil, badRequest("%s is not a PDF file", fh.Filename)
		}
		res = append(res, &upload{name: fh.Filename, data: data})
	}
	return res, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// fail reports a failed merge request to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, files []*upload) {
	status, result := classify(err)
	s.metrics.merges.WithLabelValues(result).Inc()
	s.writeError(w, r, status, err, files)
}

// failCount reports a failed page count request to the client.
func (s *Server) failCount(w http.ResponseWriter, r *http.Request, err error, files []*upload) {
	status, _ := classify(err)
	s.writeError(w, r, status, err, files)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error, files []*upload) {
	resp := &errorResponse{Error: err.Error()}
	var inputErr *merge.InputError
	if errors.As(err, &inputErr) {
		idx := inputErr.Index
		resp.Index = &idx
		if idx >= 0 && idx < len(files) {
			resp.File = files[idx].name
		}
	}

	if status >= 500 {
		s.log.Error("request failed", zap.String("id", requestID(r)), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("id", requestID(r)), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

// classify maps an error to an HTTP status code and a value for the
// "result" label of the merge metrics.
func classify(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, resultBadRequest
	case errors.Is(err, merge.ErrUnsupported):
		return http.StatusUnprocessableEntity, resultUnsupported
	case merge.IsPageRootError(err):
		return http.StatusUnprocessableEntity, resultNoPageTree
	case errors.Is(err, merge.ErrEmptyInput),
		errors.Is(err, merge.ErrInvalidInput),
		errors.Is(err, merge.ErrUnparseable):
		return http.StatusBadRequest, resultBadRequest
	default:
		return http.StatusInternalServerError, resultError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
