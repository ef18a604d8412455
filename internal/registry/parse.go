// Package registry normalizes a fetched registry document into a
// model.Ledger.
package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tricount-export/tricount-export/internal/model"
)

// DateLayout is the entry timestamp format. Fractional seconds
// ("2024-01-02 15:04:05.123456") are accepted when parsing.
const DateLayout = "2006-01-02 15:04:05"

// Parse decodes a registry document. Transactions keep the source entry
// order and members keep the roster order.
func Parse(doc []byte) (*model.Ledger, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, &ParseError{Entry: -1, Field: "Response", Err: err}
	}

	var reg *rawRegistry
	for _, item := range d.Response {
		if item.Registry != nil {
			reg = item.Registry
			break
		}
	}
	if reg == nil {
		return nil, missing(-1, "Response.Registry")
	}
	if reg.Title == nil {
		return nil, missing(-1, "title")
	}
	if reg.Memberships == nil {
		return nil, missing(-1, "memberships")
	}
	if reg.Entries == nil {
		return nil, missing(-1, "all_registry_entry")
	}

	members, err := parseMembers(*reg.Memberships)
	if err != nil {
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(*reg.Entries))
	for i, env := range *reg.Entries {
		if env.RegistryEntry == nil {
			return nil, missing(i, "RegistryEntry")
		}
		txn, err := parseEntry(i, env.RegistryEntry)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return &model.Ledger{
		Title:        *reg.Title,
		Members:      members,
		Transactions: txns,
	}, nil
}

func parseMembers(envs []membershipEnvelope) ([]model.Member, error) {
	members := make([]model.Member, 0, len(envs))
	seen := make(map[string]bool, len(envs))
	for i := range envs {
		field := fmt.Sprintf("memberships[%d]", i)
		name, err := displayName(-1, field, &envs[i])
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &ParseError{Entry: -1, Field: field, Err: fmt.Errorf("duplicate member name %q", name)}
		}
		seen[name] = true

		member := model.Member{Name: name}
		if bal := envs[i].membership().Balance; bal != nil {
			if present(bal.Value) {
				v, err := decimalValue(-1, field+".balance.value", bal.Value)
				if err != nil {
					return nil, err
				}
				member.Balance = v
			}
			if bal.Currency != nil {
				member.Currency = *bal.Currency
			}
		}
		members = append(members, member)
	}
	return members, nil
}

func parseEntry(i int, e *rawEntry) (model.Transaction, error) {
	if e.TypeTransaction == nil {
		return model.Transaction{}, missing(i, "type_transaction")
	}
	payer, err := displayName(i, "membership_owned", e.MembershipOwned)
	if err != nil {
		return model.Transaction{}, err
	}
	if e.Amount == nil {
		return model.Transaction{}, missing(i, "amount.value")
	}
	amount, err := decimalValue(i, "amount.value", e.Amount.Value)
	if err != nil {
		return model.Transaction{}, err
	}
	if e.Amount.Currency == nil {
		return model.Transaction{}, missing(i, "amount.currency")
	}
	if e.Date == nil {
		return model.Transaction{}, missing(i, "date")
	}
	ts, err := time.Parse(DateLayout, *e.Date)
	if err != nil {
		return model.Transaction{}, &ParseError{Entry: i, Field: "date", Err: err}
	}
	if e.Allocations == nil {
		return model.Transaction{}, missing(i, "allocations")
	}

	shares := make([]model.Share, 0, len(*e.Allocations))
	for j, alloc := range *e.Allocations {
		field := fmt.Sprintf("allocations[%d]", j)
		name, err := displayName(i, field+".membership", alloc.Membership)
		if err != nil {
			return model.Transaction{}, err
		}
		if alloc.Amount == nil {
			return model.Transaction{}, missing(i, field+".amount.value")
		}
		share, err := decimalValue(i, field+".amount.value", alloc.Amount.Value)
		if err != nil {
			return model.Transaction{}, err
		}
		shares = append(shares, model.Share{Member: name, Amount: share.Abs()})
	}

	var attachments []string
	for _, att := range e.Attachments {
		if len(att.URLs) > 0 {
			attachments = append(attachments, att.URLs[0].URL)
		}
	}

	return model.Transaction{
		Kind:        model.ParseKind(*e.TypeTransaction),
		Payer:       payer,
		Amount:      amount.Neg(),
		Currency:    *e.Amount.Currency,
		Description: e.Description,
		Timestamp:   ts,
		Shares:      shares,
		Category:    e.Category,
		Attachments: attachments,
	}, nil
}

// displayName extracts alias.display_name from a tagged membership.
func displayName(entry int, field string, env *membershipEnvelope) (string, error) {
	m := env.membership()
	if m == nil {
		return "", missing(entry, field)
	}
	if m.Alias == nil || m.Alias.DisplayName == nil {
		return "", missing(entry, field+".alias.display_name")
	}
	return *m.Alias.DisplayName, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// decimalValue decodes a JSON string or number amount.
func decimalValue(entry int, field string, raw json.RawMessage) (decimal.Decimal, error) {
	if !present(raw) {
		return decimal.Decimal{}, missing(entry, field)
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(raw); err != nil {
		return decimal.Decimal{}, &ParseError{Entry: entry, Field: field, Err: err}
	}
	return v, nil
}
