package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/logger"
	goshopify "github.com/bold-commerce/go-shopify/v4"
	"go.uber.org/multierr"
)

var (
	errAPIKeyRequired    = errors.New("shopify api key is required")
	errAPISecretRequired = errors.New("shopify api secret is required")
)

// ShopInfo is the subset of the shop resource persisted on install.
type ShopInfo struct {
	Domain   string
	Name     string
	Email    string
	Currency string
	Plan     string
}

// InstallClient drives the authorization-code install flow and the
// post-install calls made with the offline token.
type InstallClient struct {
	app        goshopify.App
	apiVersion string
	logger     *logger.Logger
}

func NewInstallClient(cfg config.ShopifyConfig, redirectURL string, logg *logger.Logger) (*InstallClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	apiSecret := strings.TrimSpace(cfg.APISecret)
	if apiSecret == "" {
		return nil, errAPISecretRequired
	}
	return &InstallClient{
		app: goshopify.App{
			ApiKey:      apiKey,
			ApiSecret:   apiSecret,
			RedirectUrl: redirectURL,
			Scope:       strings.Join(cfg.ScopeList(), ","),
		},
		apiVersion: cfg.APIVersion,
		logger:     logg,
	}, nil
}

// AuthorizeURL builds the consent-screen redirect for shop.
func (c *InstallClient) AuthorizeURL(shop, state string) (string, error) {
	authorizeURL, err := c.app.AuthorizeUrl(shop, state)
	if err != nil {
		return "", fmt.Errorf("building shopify authorize url: %w", err)
	}
	return authorizeURL, nil
}

// ExchangeCode trades the authorization code for an offline access token.
func (c *InstallClient) ExchangeCode(ctx context.Context, shop, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("exchanging shopify code: %w", err)
	}
	return token, nil
}

// FetchShop loads basic shop details with the offline token.
func (c *InstallClient) FetchShop(ctx context.Context, shop, token string) (*ShopInfo, error) {
	client, err := c.client(shop, token)
	if err != nil {
		return nil, err
	}
	remote, err := client.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching shop: %w", err)
	}
	return &ShopInfo{
		Domain:   shop,
		Name:     remote.Name,
		Email:    remote.Email,
		Currency: remote.Currency,
		Plan:     remote.PlanName,
	}, nil
}

// SubscribeWebhooks registers every topic in SubscribedTopics against address.
// Failures are collected so one bad topic does not block the rest.
func (c *InstallClient) SubscribeWebhooks(ctx context.Context, shop, token, address string) error {
	client, err := c.client(shop, token)
	if err != nil {
		return err
	}
	var errs error
	for _, topic := range SubscribedTopics {
		_, err := client.Webhook.Create(ctx, goshopify.Webhook{
			Topic:   string(topic),
			Address: address,
			Format:  "json",
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscribing %s: %w", topic, err))
			continue
		}
		if c.logger != nil {
			c.logger.Debug(c.logger.WithTopic(ctx, string(topic)), "shopify webhook subscribed")
		}
	}
	return errs
}

func (c *InstallClient) client(shop, token string) (*goshopify.Client, error) {
	var opts []goshopify.Option
	if c.apiVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.apiVersion))
	}
	client, err := goshopify.NewClient(c.app, shop, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating shopify client: %w", err)
	}
	return client, nil
}
