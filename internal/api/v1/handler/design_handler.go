package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"designmart/internal/api/v1/dto"
	"designmart/internal/middleware"
	"designmart/internal/model"
	"designmart/internal/service"

	"github.com/go-playground/validator/v10"
)

// DesignHandler handles design upload, browsing and paid downloads.
type DesignHandler struct {
	designService service.DesignService
	validate      *validator.Validate
}

// NewDesignHandler creates a new DesignHandler
func NewDesignHandler(designService service.DesignService, validate *validator.Validate) *DesignHandler {
	return &DesignHandler{designService: designService, validate: validate}
}

// RegisterRoutes mounts design routes
func (h *DesignHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/designs", authMw(http.HandlerFunc(h.handleDesigns)))
	mux.Handle("/designs/", authMw(http.HandlerFunc(h.handleDesign)))
}

func (h *DesignHandler) handleDesigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.initiateUpload(w, r)
	case http.MethodGet:
		h.listApproved(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *DesignHandler) handleDesign(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/designs/")
	parts := strings.SplitN(rest, "/", 2)
	if r.Method != http.MethodPost || len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	switch parts[1] {
	case "complete":
		h.completeUpload(w, r, parts[0])
	case "download":
		h.download(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// initiateUpload godoc
// @Summary Start a design upload
// @Description Creates a design record and returns a presigned PUT URL for the file.
// @Tags designs
// @Accept json
// @Produce json
// @Param design body dto.DesignUploadDTO true "Upload request"
// @Success 201 {object} dto.DesignUploadResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 503 {string} string "Storage temporarily unavailable"
// @Router /designs [post]
func (h *DesignHandler) initiateUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	role, _ := r.Context().Value(middleware.RoleContextKey).(model.Role)
	if role != model.RoleDesigner && role != model.RoleAdmin {
		http.Error(w, "Forbidden: only designers can upload", http.StatusForbidden)
		return
	}
	var req dto.DesignUploadDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	design, uploadURL, err := h.designService.InitiateUpload(r.Context(), userID, req.Title, req.Category, req.Filename)
	if err != nil {
		writeServiceError(w, err, "Failed to initiate upload")
		return
	}
	resp := dto.DesignUploadResponseDTO{
		Design:    designResponse(design),
		UploadURL: uploadURL,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// completeUpload godoc
// @Summary Finish a design upload
// @Description Verifies the file landed in storage, runs the duplicate screen and moves the design into moderation.
// @Tags designs
// @Produce json
// @Param designId path string true "Design ID"
// @Success 200 {object} dto.DesignResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Not found"
// @Router /designs/{designId}/complete [post]
func (h *DesignHandler) completeUpload(w http.ResponseWriter, r *http.Request, designID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	design, err := h.designService.CompleteUpload(r.Context(), designID, userID)
	if err != nil {
		writeServiceError(w, err, "Failed to complete upload")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(designResponse(design))
}

// listApproved godoc
// @Summary Browse approved designs
// @Description Lists purchasable designs, optionally filtered by category.
// @Tags designs
// @Produce json
// @Param category query string false "Category filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.DesignResponseDTO
// @Failure 503 {string} string "Storage temporarily unavailable"
// @Router /designs [get]
func (h *DesignHandler) listApproved(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	designs, err := h.designService.ListApproved(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list designs")
		return
	}
	resp := make([]dto.DesignResponseDTO, 0, len(designs))
	for i := range designs {
		resp = append(resp, designResponse(&designs[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// download godoc
// @Summary Download a design
// @Description Spends one credit from the caller's ledger and returns a presigned GET URL. Responds 402 without a URL when no live pool can cover the debit.
// @Tags designs
// @Produce json
// @Param designId path string true "Design ID"
// @Success 200 {object} dto.DesignDownloadResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 402 {string} string "Insufficient credits"
// @Failure 404 {string} string "Not found"
// @Router /designs/{designId}/download [post]
func (h *DesignHandler) download(w http.ResponseWriter, r *http.Request, designID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	url, pool, err := h.designService.Download(r.Context(), designID, userID)
	if err != nil {
		writeServiceError(w, err, "Failed to download design")
		return
	}
	resp := dto.DesignDownloadResponseDTO{
		DownloadURL:      url,
		PoolID:           pool.ID,
		CreditsRemaining: pool.CreditsRemaining,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func designResponse(d *model.Design) dto.DesignResponseDTO {
	return dto.DesignResponseDTO{
		DesignID:   d.ID,
		DesignerID: d.DesignerID,
		Title:      d.Title,
		Category:   d.Category,
		Status:     string(d.Status),
		Downloads:  d.Downloads,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
