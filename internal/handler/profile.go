package handler

import (
	"context"
	"errors"
	"net/http"

	"steamprofile-rest-api/internal/model"
	"steamprofile-rest-api/internal/resolver"
	"steamprofile-rest-api/internal/service"
	"steamprofile-rest-api/pkg/apierror"
	"steamprofile-rest-api/pkg/response"

	"go.uber.org/zap"
)

// ProfileGetter returns the merged profile for a token.
type ProfileGetter interface {
	Get(ctx context.Context, token string) (*model.Profile, error)
}

// ProfileHandler serves merged profiles.
type ProfileHandler struct {
	profiles ProfileGetter
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles ProfileGetter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.Named("profile_handler"),
	}
}

// GetProfile handles GET /steam?user=<token>
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("user")

	profile, err := h.profiles.Get(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.Error(w, apierror.ValidationError("Missing user parameter",
				apierror.FieldError{Field: "user", Message: "required"}))
			return
		}
		if errors.Is(err, resolver.ErrInvalidToken) {
			response.Error(w, apierror.ValidationError("Invalid user parameter",
				apierror.FieldError{Field: "user", Message: "not a profile name, URL or id"}))
			return
		}

		h.logger.Error("Profile aggregation failed", zap.String("user", token), zap.Error(err))
		response.Error(w, apierror.InternalError(err.Error()))
		return
	}

	response.Plain(w, http.StatusOK, profile)
}
