package controllers

import (
	"net/http"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/api/validators"
	"github.com/angelmondragon/boardsync/internal/settings"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/google/uuid"
)

type settingsUpdateRequest struct {
	Mode          *string                     `json:"mode,omitempty" validate:"omitempty,oneof=single multi"`
	Mappings      *models.MappingOptions      `json:"mappings,omitempty"`
	Notifications *models.NotificationOptions `json:"notifications,omitempty"`
}

func (r settingsUpdateRequest) toInput(shopID, userID uuid.UUID) settings.UpdateInput {
	input := settings.UpdateInput{
		ShopID:        shopID,
		UserID:        &userID,
		Mappings:      r.Mappings,
		Notifications: r.Notifications,
	}
	if r.Mode != nil {
		mode := enums.ConnectionMode(*r.Mode)
		input.Mode = &mode
	}
	return input
}

func GetSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), sc.Shop.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSettingsResponse(row))
	}
}

// UpdateSettings applies a partial change; omitted sections are kept.
func UpdateSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req settingsUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), req.toInput(sc.Shop.ID, sc.User.ID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSettingsResponse(row))
	}
}
