package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 * 1024 * 1024

const imageField = "image"

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    s.opts.AppName,
		"version": s.opts.AppVersion,
		"tagline": tagline,
		"docs":    "/docs",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleScanHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "scan"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	image, status, detail := readImage(w, r)
	if status != 0 {
		logger.Info().Int("status", status).Str("detail", detail).Msg("rejected upload")
		writeDetail(w, status, detail)
		return
	}

	report, err := s.opts.Analyzer.Analyze(ctx, image)
	s.opts.Metrics.ObserveAppraisal(err)
	if err != nil {
		s.writeAnalyzeError(ctx, w, err)
		return
	}

	logger.Info().
		Str("item", report.ItemName).
		Str("value", report.EstimatedValue).
		Int("sourceCount", report.SourceCount).
		Msg("appraisal complete")
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeAnalyzeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := zerolog.Ctx(ctx)
	var idErr *appraisal.IdentificationError
	var priceErr *appraisal.PricingError

	// Port errors come first: a port hitting its own timeout is a port
	// failure, not the request running out of time.
	switch {
	case errors.As(err, &idErr):
		logger.Error().Err(err).Msg("identification failed")
		writeDetail(w, http.StatusBadGateway, "Item identification service failed.")
	case errors.As(err, &priceErr):
		logger.Error().Err(err).Str("query", priceErr.Query).Msg("price lookup failed")
		writeDetail(w, http.StatusBadGateway, "Price lookup service failed.")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is left to read a response.
		logger.Info().Err(err).Msg("appraisal cancelled by client")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg("appraisal timed out")
		writeDetail(w, http.StatusGatewayTimeout, "Appraisal timed out.")
	default:
		logger.Error().Err(err).Msg("appraisal failed")
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// readImage extracts the image part of a multipart upload. It checks the
// content type, then the size, then emptiness. A non-zero status means the
// request was rejected with detail.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, int, string) {
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, http.StatusUnprocessableEntity, "Expected a multipart/form-data upload with an image field."
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, http.StatusUnprocessableEntity, "Field required: image"
		}
		if err != nil {
			return nil, statusForReadError(err), readErrorDetail(err)
		}
		if part.FormName() != imageField {
			part.Close()
			continue
		}
		defer part.Close()

		contentType := normalizeContentType(part.Header.Get("Content-Type"))
		if !appraisal.IsAllowedImageType(contentType) {
			return nil, http.StatusUnsupportedMediaType, fmt.Sprintf(
				"Unsupported file type: %s. Allowed types: %s",
				contentType, strings.Join(appraisal.AllowedImageTypes, ", "),
			)
		}

		data, err := io.ReadAll(io.LimitReader(part, MaxImageSize+1))
		if err != nil {
			return nil, statusForReadError(err), readErrorDetail(err)
		}
		if len(data) > MaxImageSize {
			return nil, http.StatusRequestEntityTooLarge, tooLargeDetail()
		}
		if len(data) == 0 {
			return nil, http.StatusBadRequest, "Empty file uploaded."
		}
		return data, 0, ""
	}
}

func normalizeContentType(v string) string {
	if v == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mediaType
}

func statusForReadError(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func readErrorDetail(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return tooLargeDetail()
	}
	return "Malformed upload."
}

func tooLargeDetail() string {
	return fmt.Sprintf("File too large. Maximum size is %d MB.", MaxImageSize/(1024*1024))
}
