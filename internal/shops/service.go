package shops

import (
	"context"
	"time"

	"github.com/angelmondragon/boardsync/internal/connections"
	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/internal/settings"
	"github.com/angelmondragon/boardsync/internal/trellowebhooks"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/security"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry eventlog.Entry) error
}

type credentialSource interface {
	ForShop(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, trello.Credentials, error)
}

type webhookDeregistrar interface {
	DeregisterAll(ctx context.Context, creds trello.Credentials, shopID uuid.UUID) error
}

// InstallInput is what the OAuth callback learned about the shop.
type InstallInput struct {
	Domain      string
	AccessToken string
	Scope       string
	Info        *shopify.ShopInfo
}

type InstallResult struct {
	Shop        *models.Shop
	Created     bool
	Reinstalled bool
}

type Service interface {
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
	Install(ctx context.Context, input InstallInput) (*InstallResult, error)
	Uninstall(ctx context.Context, domain string) (*models.Shop, error)
	Redact(ctx context.Context, domain string) error
}

type ServiceParams struct {
	Repo        Repository
	Settings    settings.Repository
	Connections connections.Repository
	Webhooks    trellowebhooks.Repository
	Events      txRecorder
	Credentials credentialSource
	Deregistrar webhookDeregistrar
	Sealer      *security.Sealer
	Tx          txRunner
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	settings    settings.Repository
	connections connections.Repository
	webhooks    trellowebhooks.Repository
	events      txRecorder
	credentials credentialSource
	deregistrar webhookDeregistrar
	sealer      *security.Sealer
	tx          txRunner
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shops repository required")
	case params.Settings == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	case params.Connections == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "connections repository required")
	case params.Webhooks == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trello webhooks repository required")
	case params.Events == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event log required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	sealer := params.Sealer
	if sealer == nil {
		sealer = security.NewSealer("")
	}
	return &service{
		repo:        params.Repo,
		settings:    params.Settings,
		connections: params.Connections,
		webhooks:    params.Webhooks,
		events:      params.Events,
		credentials: params.Credentials,
		deregistrar: params.Deregistrar,
		sealer:      sealer,
		tx:          params.Tx,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *service) FindByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	shop, err := s.repo.FindByDomain(ctx, shopify.NormalizeShopDomain(domain))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return shop, nil
}

// Install creates or reactivates the shop, stores its offline token and makes
// sure a settings row exists.
func (s *service) Install(ctx context.Context, input InstallInput) (*InstallResult, error) {
	domain := shopify.NormalizeShopDomain(input.Domain)
	if !shopify.ValidShopDomain(domain) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop domain")
	}
	if input.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token required")
	}
	sealed, err := s.sealer.Seal(input.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal shop token")
	}

	result := &InstallResult{}
	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shop, err := repo.FindByDomain(ctx, domain)
		if err != nil {
			return err
		}
		if shop == nil {
			shop = &models.Shop{Domain: domain}
			result.Created = true
		} else if !shop.IsActive() {
			result.Reinstalled = true
		}

		shop.Status = enums.ShopStatusActive
		shop.AccessToken = &sealed
		shop.Scope = input.Scope
		shop.InstalledAt = &now
		shop.UninstalledAt = nil
		applyInfo(shop, input.Info)
		if err := repo.Save(ctx, shop); err != nil {
			return err
		}
		if _, _, err := s.settings.WithTx(tx).EnsureDefault(ctx, shop.ID); err != nil {
			return err
		}

		result.Shop = shop
		shopID := shop.ID
		return s.events.RecordTx(ctx, tx, eventlog.Entry{
			ShopID: &shopID,
			Source: enums.EventSourceShopify,
			Type:   string(enums.EventTypeAppInstalled),
			Payload: map[string]any{
				"created":     result.Created,
				"reinstalled": result.Reinstalled,
				"scope":       input.Scope,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "install shop")
	}
	return result, nil
}

func applyInfo(shop *models.Shop, info *shopify.ShopInfo) {
	if info == nil {
		return
	}
	set := func(dst **string, v string) {
		if v != "" {
			value := v
			*dst = &value
		}
	}
	set(&shop.Name, info.Name)
	set(&shop.Email, info.Email)
	set(&shop.Currency, info.Currency)
	set(&shop.Plan, info.Plan)
}

// Uninstall marks the shop uninstalled, clears its offline token, removes its
// board connections and deactivates its board webhooks. The shop row stays.
func (s *service) Uninstall(ctx context.Context, domain string) (*models.Shop, error) {
	shop, err := s.FindByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not installed")
	}

	s.deregisterRemote(ctx, shop)

	now := s.now().UTC()
	var removed int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkUninstalled(ctx, shop.ID, now); err != nil {
			return err
		}
		n, err := s.connections.WithTx(tx).DeleteForShop(ctx, shop.ID)
		if err != nil {
			return err
		}
		removed = n
		if _, err := s.webhooks.WithTx(tx).DeactivateForShop(ctx, shop.ID); err != nil {
			return err
		}
		shopID := shop.ID
		return s.events.RecordTx(ctx, tx, eventlog.Entry{
			ShopID:  &shopID,
			Source:  enums.EventSourceShopify,
			Type:    string(enums.EventTypeAppUninstalled),
			Payload: map[string]any{"connections_removed": removed},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uninstall shop")
	}

	shop.Status = enums.ShopStatusUninstalled
	shop.AccessToken = nil
	shop.UninstalledAt = &now
	return shop, nil
}

// deregisterRemote removes board webhooks upstream while credentials still
// exist. Failures are logged; uninstall proceeds regardless.
func (s *service) deregisterRemote(ctx context.Context, shop *models.Shop) {
	if s.credentials == nil || s.deregistrar == nil {
		return
	}
	conn, creds, err := s.credentials.ForShop(ctx, shop.ID)
	if err != nil || conn == nil {
		return
	}
	if err := s.deregistrar.DeregisterAll(ctx, creds, shop.ID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(s.logg.WithShopDomain(ctx, shop.Domain), map[string]any{
			"error": err.Error(),
		}), "shops.uninstall.deregister_failed")
	}
}

// Redact erases the shop and all data it owns. Unknown shops are a no-op.
func (s *service) Redact(ctx context.Context, domain string) error {
	shop, err := s.FindByDomain(ctx, domain)
	if err != nil {
		return err
	}
	if shop == nil {
		return nil
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).DeleteCascade(ctx, shop.ID); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, eventlog.Entry{
			Source:  enums.EventSourceShopify,
			Type:    string(enums.EventTypeShopRedact),
			Payload: map[string]any{"shop_domain": shop.Domain},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redact shop")
	}
	return nil
}
