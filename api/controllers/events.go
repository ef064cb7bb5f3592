package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/api/validators"
	"github.com/angelmondragon/boardsync/internal/eventlog"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/pagination"
)

type eventPage struct {
	Items  []eventResponse `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
}

// ListEvents pages the shop's audit trail, newest first. Optional source and
// type filters narrow the result.
func ListEvents(svc eventlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event log unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		result, err := svc.List(r.Context(), eventlog.ListParams{
			ShopID:    sc.Shop.ID,
			Limit:     limit,
			Cursor:    strings.TrimSpace(q.Get("cursor")),
			Source:    validators.SanitizeString(q.Get("source"), 32),
			EventType: validators.SanitizeString(q.Get("type"), 64),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, eventPage{Items: toEventResponses(result.Items), Cursor: result.Cursor})
	}
}

// LatestEvents returns each user's most recent event.
func LatestEvents(svc eventlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event log unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.LatestPerUser(r.Context(), sc.Shop.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEventResponses(rows))
	}
}
