package boards

import (
	"context"

	"github.com/angelmondragon/boardsync/pkg/trello"
)

func (g *Gateway) GetMember(ctx context.Context, creds trello.Credentials, memberID string) (*trello.Member, error) {
	return call(ctx, g, "get_member", creds, func(ctx context.Context) (*trello.Member, error) {
		return g.client.GetMember(ctx, creds, memberID)
	})
}

func (g *Gateway) ListBoards(ctx context.Context, creds trello.Credentials) ([]trello.Board, error) {
	return call(ctx, g, "list_boards", creds, func(ctx context.Context) ([]trello.Board, error) {
		return g.client.ListBoards(ctx, creds)
	})
}

func (g *Gateway) GetBoard(ctx context.Context, creds trello.Credentials, boardID string) (*trello.Board, error) {
	return call(ctx, g, "get_board", creds, func(ctx context.Context) (*trello.Board, error) {
		return g.client.GetBoard(ctx, creds, boardID)
	})
}

func (g *Gateway) CreateBoard(ctx context.Context, creds trello.Credentials, params trello.CreateBoardParams) (*trello.Board, error) {
	return call(ctx, g, "create_board", creds, func(ctx context.Context) (*trello.Board, error) {
		return g.client.CreateBoard(ctx, creds, params)
	})
}

func (g *Gateway) ListLabels(ctx context.Context, creds trello.Credentials, boardID string) ([]trello.Label, error) {
	return call(ctx, g, "list_labels", creds, func(ctx context.Context) ([]trello.Label, error) {
		return g.client.ListLabels(ctx, creds, boardID)
	})
}

func (g *Gateway) ListLists(ctx context.Context, creds trello.Credentials, boardID string) ([]trello.List, error) {
	return call(ctx, g, "list_lists", creds, func(ctx context.Context) ([]trello.List, error) {
		return g.client.ListLists(ctx, creds, boardID)
	})
}

func (g *Gateway) CreateList(ctx context.Context, creds trello.Credentials, params trello.CreateListParams) (*trello.List, error) {
	return call(ctx, g, "create_list", creds, func(ctx context.Context) (*trello.List, error) {
		return g.client.CreateList(ctx, creds, params)
	})
}

func (g *Gateway) ListCards(ctx context.Context, creds trello.Credentials, listID string) ([]trello.Card, error) {
	return call(ctx, g, "list_cards", creds, func(ctx context.Context) ([]trello.Card, error) {
		return g.client.ListCards(ctx, creds, listID)
	})
}

func (g *Gateway) GetCard(ctx context.Context, creds trello.Credentials, cardID string) (*trello.Card, error) {
	return call(ctx, g, "get_card", creds, func(ctx context.Context) (*trello.Card, error) {
		return g.client.GetCard(ctx, creds, cardID)
	})
}

func (g *Gateway) CreateCard(ctx context.Context, creds trello.Credentials, params trello.CreateCardParams) (*trello.Card, error) {
	return call(ctx, g, "create_card", creds, func(ctx context.Context) (*trello.Card, error) {
		return g.client.CreateCard(ctx, creds, params)
	})
}

func (g *Gateway) UpdateCard(ctx context.Context, creds trello.Credentials, cardID string, params trello.UpdateCardParams) (*trello.Card, error) {
	return call(ctx, g, "update_card", creds, func(ctx context.Context) (*trello.Card, error) {
		return g.client.UpdateCard(ctx, creds, cardID, params)
	})
}

func (g *Gateway) DeleteCard(ctx context.Context, creds trello.Credentials, cardID string) error {
	return exec(ctx, g, "delete_card", creds, func(ctx context.Context) error {
		return g.client.DeleteCard(ctx, creds, cardID)
	})
}

func (g *Gateway) AddComment(ctx context.Context, creds trello.Credentials, cardID, text string) (*trello.Action, error) {
	return call(ctx, g, "add_comment", creds, func(ctx context.Context) (*trello.Action, error) {
		return g.client.AddComment(ctx, creds, cardID, text)
	})
}

func (g *Gateway) AddMemberToCard(ctx context.Context, creds trello.Credentials, cardID, memberID string) error {
	return exec(ctx, g, "add_card_member", creds, func(ctx context.Context) error {
		return g.client.AddMemberToCard(ctx, creds, cardID, memberID)
	})
}

func (g *Gateway) AddLabelToCard(ctx context.Context, creds trello.Credentials, cardID, labelID string) error {
	return exec(ctx, g, "add_card_label", creds, func(ctx context.Context) error {
		return g.client.AddLabelToCard(ctx, creds, cardID, labelID)
	})
}

func (g *Gateway) CreateWebhook(ctx context.Context, creds trello.Credentials, params trello.CreateWebhookParams) (*trello.Webhook, error) {
	return call(ctx, g, "create_webhook", creds, func(ctx context.Context) (*trello.Webhook, error) {
		return g.client.CreateWebhook(ctx, creds, params)
	})
}

func (g *Gateway) DeleteWebhook(ctx context.Context, creds trello.Credentials, webhookID string) error {
	return exec(ctx, g, "delete_webhook", creds, func(ctx context.Context) error {
		return g.client.DeleteWebhook(ctx, creds, webhookID)
	})
}

func (g *Gateway) ListTokenWebhooks(ctx context.Context, creds trello.Credentials) ([]trello.Webhook, error) {
	return call(ctx, g, "list_webhooks", creds, func(ctx context.Context) ([]trello.Webhook, error) {
		return g.client.ListTokenWebhooks(ctx, creds)
	})
}
