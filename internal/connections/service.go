package connections

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/security"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModeSource reports whether a shop uses one shared connection or one per user.
type ModeSource interface {
	Mode(ctx context.Context, shopID uuid.UUID) (enums.ConnectionMode, error)
}

// MemberFetcher verifies a token by loading the member it belongs to.
type MemberFetcher interface {
	GetMember(ctx context.Context, creds trello.Credentials, memberID string) (*trello.Member, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConnectInput is a freshly obtained board-service credential.
type ConnectInput struct {
	Token        string
	TokenSecret  string
	RefreshToken string
	Scope        string
	ExpiresAt    *time.Time
}

type Service interface {
	Current(ctx context.Context, shop *models.Shop, user *models.User) (*models.TrelloConnection, error)
	Connect(ctx context.Context, shop *models.Shop, user *models.User, input ConnectInput) (*models.TrelloConnection, error)
	Disconnect(ctx context.Context, shop *models.Shop, user *models.User) error
	ForShop(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, trello.Credentials, error)
	Credentials(conn *models.TrelloConnection) (trello.Credentials, error)
}

type ServiceParams struct {
	Repo         Repository
	Modes        ModeSource
	Members      MemberFetcher
	Events       eventlog.Recorder
	Sealer       *security.Sealer
	Tx           txRunner
	DefaultScope string
}

type service struct {
	repo         Repository
	modes        ModeSource
	members      MemberFetcher
	events       eventlog.Recorder
	sealer       *security.Sealer
	tx           txRunner
	defaultScope string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "connections repository required")
	}
	if params.Modes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mode source required")
	}
	if params.Members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member fetcher required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	sealer := params.Sealer
	if sealer == nil {
		sealer = security.NewSealer("")
	}
	scope := params.DefaultScope
	if scope == "" {
		scope = "read,write"
	}
	return &service{
		repo:         params.Repo,
		modes:        params.Modes,
		members:      params.Members,
		events:       params.Events,
		sealer:       sealer,
		tx:           params.Tx,
		defaultScope: scope,
	}, nil
}

// Current returns the connection that applies to user under the shop's mode,
// or nil when none exists.
func (s *service) Current(ctx context.Context, shop *models.Shop, user *models.User) (*models.TrelloConnection, error) {
	if shop == nil || user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	mode, err := s.modes.Mode(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	conn, err := s.find(ctx, s.repo, mode, shop.ID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trello connection")
	}
	return conn, nil
}

// Connect verifies the token against the board service and stores it as the
// shared or per-user connection, replacing any previous one.
func (s *service) Connect(ctx context.Context, shop *models.Shop, user *models.User, input ConnectInput) (*models.TrelloConnection, error) {
	mode, err := s.authorize(ctx, shop, user)
	if err != nil {
		return nil, err
	}
	input.Token = strings.TrimSpace(input.Token)
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token required")
	}

	member, err := s.members.GetMember(ctx, trello.Credentials{Token: input.Token, TokenSecret: input.TokenSecret}, "me")
	if err != nil {
		return nil, err
	}

	sealedToken, err := s.sealer.Seal(input.Token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal token")
	}
	sealedSecret, err := s.sealer.SealPtr(optional(input.TokenSecret))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal token secret")
	}
	sealedRefresh, err := s.sealer.SealPtr(optional(input.RefreshToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal refresh token")
	}
	scope := input.Scope
	if scope == "" {
		scope = s.defaultScope
	}

	var saved *models.TrelloConnection
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		conn, err := s.find(ctx, repo, mode, shop.ID, user.ID)
		if err != nil {
			return err
		}
		if conn == nil {
			conn = &models.TrelloConnection{ShopID: shop.ID}
			if mode == enums.ConnectionModeMulti {
				uid := user.ID
				conn.UserID = &uid
			}
		}
		conn.MemberID = member.ID
		conn.Username = optional(member.Username)
		conn.AccessToken = sealedToken
		conn.TokenSecret = sealedSecret
		conn.RefreshToken = sealedRefresh
		conn.Scope = scope
		conn.ExpiresAt = input.ExpiresAt
		if err := repo.Save(ctx, conn); err != nil {
			return err
		}
		saved = conn
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "connection already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save trello connection")
	}

	s.record(ctx, shop.ID, user.ID, enums.EventTypeConnectionCreated, map[string]any{
		"member_id": member.ID,
		"mode":      mode,
		"signed":    input.TokenSecret != "",
	})
	return saved, nil
}

func (s *service) Disconnect(ctx context.Context, shop *models.Shop, user *models.User) error {
	mode, err := s.authorize(ctx, shop, user)
	if err != nil {
		return err
	}
	conn, err := s.find(ctx, s.repo, mode, shop.ID, user.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trello connection")
	}
	if conn == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no trello connection")
	}
	if err := s.repo.Delete(ctx, conn.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete trello connection")
	}
	s.record(ctx, shop.ID, user.ID, enums.EventTypeConnectionRemoved, map[string]any{"member_id": conn.MemberID})
	return nil
}

// ForShop returns the oldest connection of the shop with its opened
// credentials. A shop without connections yields (nil, zero, nil).
func (s *service) ForShop(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, trello.Credentials, error) {
	conn, err := s.repo.Oldest(ctx, shopID)
	if err != nil {
		return nil, trello.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trello connection")
	}
	if conn == nil {
		return nil, trello.Credentials{}, nil
	}
	creds, err := s.Credentials(conn)
	if err != nil {
		return nil, trello.Credentials{}, err
	}
	return conn, creds, nil
}

func (s *service) Credentials(conn *models.TrelloConnection) (trello.Credentials, error) {
	if conn == nil {
		return trello.Credentials{}, pkgerrors.New(pkgerrors.CodeNotFound, "no trello connection")
	}
	token, err := s.sealer.Open(conn.AccessToken)
	if err != nil {
		return trello.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open trello token")
	}
	secret, err := s.sealer.Open(conn.Secret())
	if err != nil {
		return trello.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open trello token secret")
	}
	return trello.Credentials{Token: token, TokenSecret: secret}, nil
}

// authorize enforces that only an owner manages the shared connection.
func (s *service) authorize(ctx context.Context, shop *models.Shop, user *models.User) (enums.ConnectionMode, error) {
	if shop == nil || user == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	mode, err := s.modes.Mode(ctx, shop.ID)
	if err != nil {
		return "", err
	}
	if mode == enums.ConnectionModeSingle && user.Role != enums.UserRoleOwner {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "only the store owner can manage the shared connection")
	}
	return mode, nil
}

func (s *service) find(ctx context.Context, repo Repository, mode enums.ConnectionMode, shopID, userID uuid.UUID) (*models.TrelloConnection, error) {
	if mode == enums.ConnectionModeMulti {
		return repo.FindForUser(ctx, shopID, userID)
	}
	return repo.FindShared(ctx, shopID)
}

func (s *service) record(ctx context.Context, shopID, userID uuid.UUID, typ enums.EventType, payload map[string]any) {
	_ = s.events.Record(ctx, eventlog.Entry{
		ShopID:  &shopID,
		UserID:  &userID,
		Source:  enums.EventSourceTrello,
		Type:    string(typ),
		Payload: payload,
	})
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
