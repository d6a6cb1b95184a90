package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"leaflet/extraction"
	"leaflet/file"
	"leaflet/leaflet"
	"leaflet/storage"
	"leaflet/vision"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	uploadField = "image"
	// sourceHeader tells clients whether products came from the model or the fallback dataset.
	sourceHeader = "X-Extraction-Source"
)

type UploadResponse struct {
	Success       bool              `json:"success"`
	Products      []leaflet.Product `json:"products"`
	TotalProducts int               `json:"total_products"`
}

type ProductsResponse struct {
	Products []leaflet.Product `json:"products"`
}

type ProductResponse struct {
	Success bool            `json:"success"`
	Product leaflet.Product `json:"product"`
}

type HealthResponse struct {
	Status               string `json:"status"`
	ExtractionConfigured bool   `json:"extraction_configured"`
	StoreBackend         string `json:"store_backend"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := ContextLogger(r.Context(), s.logger)

	if r.ContentLength > s.cfg.MaxUploadBytes() {
		writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds the upload limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile(uploadField)
	if err != nil {
		// A file input submitted without a selection arrives as an empty value.
		if _, ok := r.MultipartForm.Value[uploadField]; ok {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer f.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	path, err := s.uploads.Save(header.Filename, f)
	if errors.Is(err, file.ErrEmptyFilename) {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if err != nil {
		logger.Error("failed to save upload", zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.extractor.Extract(r.Context(), path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, vision.ErrUpstream) || errors.Is(err, vision.ErrParse) {
			status = http.StatusBadGateway
		}
		logger.Error("extraction failed", zap.String("path", path), zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	if err := s.store.Save(r.Context(), result.Products); err != nil {
		logger.Error("failed to store products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(r.Context(), extraction.NewEvent(path, result)); err != nil {
			logger.Warn("failed to publish extraction event", zap.Error(err))
		}
	}

	logger.Info("leaflet processed",
		zap.String("filename", header.Filename),
		zap.String("source", string(result.Source)),
		zap.Int("products", len(result.Products)))

	w.Header().Set(sourceHeader, string(result.Source))
	writeJSON(w, http.StatusOK, UploadResponse{
		Success:       true,
		Products:      nonNil(result.Products),
		TotalProducts: len(result.Products),
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Load(r.Context())
	if err != nil && !errors.Is(err, storage.ErrNoProducts) {
		ContextLogger(r.Context(), s.logger).Error("failed to load products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProductsResponse{Products: nonNil(products)})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	products, err := s.store.Load(r.Context())
	if errors.Is(err, storage.ErrNoProducts) {
		writeError(w, http.StatusNotFound, "No products available")
		return
	}
	if err != nil {
		ContextLogger(r.Context(), s.logger).Error("failed to load products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if id >= len(products) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	writeJSON(w, http.StatusOK, ProductResponse{Success: true, Product: products[id]})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:               "ok",
		ExtractionConfigured: s.cfg.IsConfigured(),
		StoreBackend:         s.cfg.StoreBackend,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func nonNil(products []leaflet.Product) []leaflet.Product {
	if products == nil {
		return []leaflet.Product{}
	}
	return products
}
