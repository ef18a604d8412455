package registry

import (
	"encoding/json"
)

// Wire shapes of the registry response. Required values are pointers so
// that absence can be told apart from a zero value.

type document struct {
	Response []responseItem `json:"Response"`
}

type responseItem struct {
	Registry *rawRegistry `json:"Registry"`
}

type rawRegistry struct {
	Title       *string               `json:"title"`
	Memberships *[]membershipEnvelope `json:"memberships"`
	Entries     *[]entryEnvelope      `json:"all_registry_entry"`
}

// membershipEnvelope is tagged by membership variant. Both variants carry
// the same alias payload.
type membershipEnvelope struct {
	NonUser *rawMembership `json:"RegistryMembershipNonUser"`
	User    *rawMembership `json:"RegistryMembershipUser"`
}

func (m *membershipEnvelope) membership() *rawMembership {
	if m == nil {
		return nil
	}
	if m.NonUser != nil {
		return m.NonUser
	}
	return m.User
}

type rawMembership struct {
	Alias   *rawAlias  `json:"alias"`
	Balance *rawAmount `json:"balance"`
}

type rawAlias struct {
	DisplayName *string `json:"display_name"`
}

// rawAmount keeps value undecoded so a malformed number is reported
// against its entry rather than failing the whole document.
type rawAmount struct {
	Value    json.RawMessage `json:"value"`
	Currency *string         `json:"currency"`
}

type entryEnvelope struct {
	RegistryEntry *rawEntry `json:"RegistryEntry"`
}

type rawEntry struct {
	TypeTransaction *string             `json:"type_transaction"`
	MembershipOwned *membershipEnvelope `json:"membership_owned"`
	Amount          *rawAmount          `json:"amount"`
	Description     string              `json:"description"`
	Date            *string             `json:"date"`
	Allocations     *[]rawAllocation    `json:"allocations"`
	Category        string              `json:"category"`
	Attachments     []rawAttachment     `json:"attachment"`
}

type rawAllocation struct {
	Membership *membershipEnvelope `json:"membership"`
	Amount     *rawAmount          `json:"amount"`
}

type rawAttachment struct {
	URLs []struct {
		URL string `json:"url"`
	} `json:"urls"`
}
