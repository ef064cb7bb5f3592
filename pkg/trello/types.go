package trello

import "time"

type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Board struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc,omitempty"`
	URL    string `json:"url,omitempty"`
	Closed bool   `json:"closed"`
}

type List struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	IDBoard string  `json:"idBoard"`
	Closed  bool    `json:"closed"`
	Pos     float64 `json:"pos"`
}

type Card struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Desc      string     `json:"desc"`
	IDList    string     `json:"idList"`
	IDBoard   string     `json:"idBoard"`
	IDMembers []string   `json:"idMembers,omitempty"`
	IDLabels  []string   `json:"idLabels,omitempty"`
	URL       string     `json:"url,omitempty"`
	ShortURL  string     `json:"shortUrl,omitempty"`
	Closed    bool       `json:"closed"`
	Due       *time.Time `json:"due,omitempty"`
}

type Label struct {
	ID      string `json:"id"`
	IDBoard string `json:"idBoard"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

// Action is the envelope the API returns for comments and webhook deliveries.
type Action struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Date            time.Time      `json:"date"`
	Data            map[string]any `json:"data,omitempty"`
	IDMemberCreator string         `json:"idMemberCreator,omitempty"`
	MemberCreator   *Member        `json:"memberCreator,omitempty"`
}

type Webhook struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IDModel     string `json:"idModel"`
	CallbackURL string `json:"callbackURL"`
	Active      bool   `json:"active"`
}
