package trello

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Credentials identify the connected member for a call. TokenSecret is set
// only for OAuth 1.0a tokens; requests are then signed instead of carrying
// key and token as query parameters.
type Credentials struct {
	Token       string
	TokenSecret string
}

func (c Credentials) signed() bool {
	return strings.TrimSpace(c.TokenSecret) != ""
}

type CreateBoardParams struct {
	Name            string
	Desc            string
	DefaultLists    bool
	IDOrganization  string
	PermissionLevel string
}

func (p CreateBoardParams) values() url.Values {
	v := url.Values{}
	v.Set("name", p.Name)
	if p.Desc != "" {
		v.Set("desc", p.Desc)
	}
	v.Set("defaultLists", strconv.FormatBool(p.DefaultLists))
	if p.IDOrganization != "" {
		v.Set("idOrganization", p.IDOrganization)
	}
	if p.PermissionLevel != "" {
		v.Set("prefs_permissionLevel", p.PermissionLevel)
	}
	return v
}

type CreateListParams struct {
	BoardID string
	Name    string
	Pos     string
}

func (p CreateListParams) values() url.Values {
	v := url.Values{}
	v.Set("idBoard", p.BoardID)
	v.Set("name", p.Name)
	if p.Pos != "" {
		v.Set("pos", p.Pos)
	}
	return v
}

type CreateCardParams struct {
	ListID    string
	Name      string
	Desc      string
	Pos       string
	Due       *time.Time
	MemberIDs []string
	LabelIDs  []string
}

func (p CreateCardParams) values() url.Values {
	v := url.Values{}
	v.Set("idList", p.ListID)
	v.Set("name", p.Name)
	if p.Desc != "" {
		v.Set("desc", p.Desc)
	}
	if p.Pos != "" {
		v.Set("pos", p.Pos)
	}
	if p.Due != nil {
		v.Set("due", p.Due.UTC().Format(time.RFC3339))
	}
	if len(p.MemberIDs) > 0 {
		v.Set("idMembers", strings.Join(p.MemberIDs, ","))
	}
	if len(p.LabelIDs) > 0 {
		v.Set("idLabels", strings.Join(p.LabelIDs, ","))
	}
	return v
}

// UpdateCardParams only sends the fields that are set. ListID moves the card.
type UpdateCardParams struct {
	Name   *string
	Desc   *string
	ListID *string
	Pos    *string
	Closed *bool
}

func (p UpdateCardParams) values() url.Values {
	v := url.Values{}
	if p.Name != nil {
		v.Set("name", *p.Name)
	}
	if p.Desc != nil {
		v.Set("desc", *p.Desc)
	}
	if p.ListID != nil {
		v.Set("idList", *p.ListID)
	}
	if p.Pos != nil {
		v.Set("pos", *p.Pos)
	}
	if p.Closed != nil {
		v.Set("closed", strconv.FormatBool(*p.Closed))
	}
	return v
}

type CreateWebhookParams struct {
	CallbackURL string
	ModelID     string
	Description string
}

func (p CreateWebhookParams) values() url.Values {
	v := url.Values{}
	v.Set("callbackURL", p.CallbackURL)
	v.Set("idModel", p.ModelID)
	if p.Description != "" {
		v.Set("description", p.Description)
	}
	return v
}
