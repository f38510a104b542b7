package handler

import (
	"errors"
	"net/http"

	"designmart/internal/repository"
	"designmart/internal/service"
)

// writeServiceError maps service layer failures onto HTTP status codes.
// Unclassified errors fall back to 500 with the given message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, "Validation failed: "+ve.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrInsufficientCredits):
		http.Error(w, "Insufficient credits", http.StatusPaymentRequired)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrStorageUnavailable):
		http.Error(w, "Storage temporarily unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, fallback+": "+err.Error(), http.StatusInternalServerError)
	}
}
