package httpadapter

import (
	"net/http"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrNetwork),
		domain.IsKind(err, domain.ErrDeletion),
		domain.IsKind(err, domain.ErrUpload),
		domain.IsKind(err, domain.ErrIngest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
