package tricount

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// registrationRequest is the body of the installation registration call.
type registrationRequest struct {
	AppInstallationUUID string `json:"app_installation_uuid"`
	ClientPublicKey     string `json:"client_public_key"`
	DeviceDescription   string `json:"device_description"`
}

// registrationResponse is a list of items, each tagged by its single key
// ("Token", "UserPerson", "Id", ...). Items with other tags are ignored.
type registrationResponse struct {
	Response []registrationItem `json:"Response"`
}

type registrationItem struct {
	Token      *tokenItem      `json:"Token"`
	UserPerson *userPersonItem `json:"UserPerson"`
}

type tokenItem struct {
	Token string `json:"token"`
}

type userPersonItem struct {
	ID json.Number `json:"id"`
}

type registration struct {
	token  string
	userID string
}

// decodeRegistration decodes the tagged response list and requires exactly
// one Token item and exactly one UserPerson item.
func decodeRegistration(body []byte) (registration, error) {
	var response registrationResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return registration{}, fmt.Errorf("decoding response: %w", err)
	}
	if response.Response == nil {
		return registration{}, fmt.Errorf("response has no Response list")
	}

	var tokens []tokenItem
	var users []userPersonItem
	for _, item := range response.Response {
		if item.Token != nil {
			tokens = append(tokens, *item.Token)
		}
		if item.UserPerson != nil {
			users = append(users, *item.UserPerson)
		}
	}

	if len(tokens) != 1 {
		return registration{}, fmt.Errorf("expected exactly one Token item, got %d", len(tokens))
	}
	if len(users) != 1 {
		return registration{}, fmt.Errorf("expected exactly one UserPerson item, got %d", len(users))
	}
	if tokens[0].Token == "" {
		return registration{}, fmt.Errorf("empty token in Token item")
	}
	if users[0].ID == "" {
		return registration{}, fmt.Errorf("missing id in UserPerson item")
	}

	return registration{token: tokens[0].Token, userID: users[0].ID.String()}, nil
}

// Document is a registry response exactly as returned by the API.
type Document []byte

// Indent returns the document pretty-printed with two-space indentation.
func (d Document) Indent() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
