package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/api/validators"
	"github.com/angelmondragon/boardsync/internal/session"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/trello"
)

// CredentialResolver picks the board-service credentials for a session.
type CredentialResolver interface {
	Current(ctx context.Context, shop *models.Shop, user *models.User) (*models.TrelloConnection, error)
	Credentials(conn *models.TrelloConnection) (trello.Credentials, error)
}

type BoardReader interface {
	ListBoards(ctx context.Context, creds trello.Credentials) ([]trello.Board, error)
	ListLists(ctx context.Context, creds trello.Credentials, boardID string) ([]trello.List, error)
	AddComment(ctx context.Context, creds trello.Credentials, cardID, text string) (*trello.Action, error)
}

type commentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=16384"`
}

func sessionCredentials(ctx context.Context, resolver CredentialResolver, sc *session.Context) (trello.Credentials, error) {
	conn, err := resolver.Current(ctx, sc.Shop, sc.User)
	if err != nil {
		return trello.Credentials{}, err
	}
	if conn == nil {
		return trello.Credentials{}, pkgerrors.New(pkgerrors.CodeNotFound, "board service not connected")
	}
	return resolver.Credentials(conn)
}

// ListBoards returns the boards visible to the session's connection.
func ListBoards(resolver CredentialResolver, gateway BoardReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil || gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "board gateway unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		creds, err := sessionCredentials(r.Context(), resolver, sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		boards, err := gateway.ListBoards(r.Context(), creds)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if boards == nil {
			boards = []trello.Board{}
		}
		responses.WriteSuccess(w, boards)
	}
}

func ListBoardLists(resolver CredentialResolver, gateway BoardReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil || gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "board gateway unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		boardID, err := validators.PathID(r, "boardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		creds, err := sessionCredentials(r.Context(), resolver, sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lists, err := gateway.ListLists(r.Context(), creds, boardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if lists == nil {
			lists = []trello.List{}
		}
		responses.WriteSuccess(w, lists)
	}
}

func AddCardComment(resolver CredentialResolver, gateway BoardReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil || gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "board gateway unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cardID, err := validators.PathID(r, "cardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req commentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		creds, err := sessionCredentials(r.Context(), resolver, sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := gateway.AddComment(r.Context(), creds, cardID, req.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, action)
	}
}
