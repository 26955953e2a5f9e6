package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"cardbank/internal/banking/domain"
	vo "cardbank/internal/common/value_objects"
)

// Record is the persisted shape of one account, shared by every document-based store.
type Record struct {
	UserName    string  `json:"user_name" yaml:"user_name"`
	UserSurname string  `json:"user_surname" yaml:"user_surname"`
	UserAge     int     `json:"user_age" yaml:"user_age"`
	PhoneNumber string  `json:"phone_number" yaml:"phone_number"`
	Balance     balance `json:"balance" yaml:"balance"`
	Password    string  `json:"password" yaml:"password"`
	CardNumber  string  `json:"card_number" yaml:"card_number"`
}

// balance is written as a plain number in both formats.
// It keeps at least two decimals and never drops the ones it carries.
type balance struct {
	amount decimal.Decimal
	set    bool
}

func (b balance) text() string {
	if b.amount.Exponent() >= -2 {
		return b.amount.StringFixed(2)
	}
	return b.amount.String()
}

func (b balance) MarshalJSON() ([]byte, error) {
	return []byte(b.text()), nil
}

func (b *balance) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if string(data) == "null" {
		return errors.New("balance is null")
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	b.amount, b.set = d, true
	return nil
}

func (b balance) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!float",
		Value: b.text(),
	}, nil
}

func (b *balance) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("balance: expected a scalar at line %d", node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	b.amount, b.set = d, true
	return nil
}

// NewRecord captures every field of an account.
func NewRecord(a *domain.Account) Record {
	return Record{
		UserName:    a.Name(),
		UserSurname: a.Surname(),
		UserAge:     a.Age(),
		PhoneNumber: a.PhoneNumber(),
		Balance:     balance{amount: a.Balance().Amount, set: true},
		Password:    a.PasswordHash(),
		CardNumber:  a.CardNumber().String(),
	}
}

// ToAccount rebuilds the account, failing when any field is missing.
func (r Record) ToAccount() (*domain.Account, error) {
	switch {
	case r.UserName == "":
		return nil, errors.New("user_name is missing")
	case r.UserSurname == "":
		return nil, errors.New("user_surname is missing")
	case r.UserAge <= 0:
		return nil, errors.New("user_age is missing")
	case r.PhoneNumber == "":
		return nil, errors.New("phone_number is missing")
	case !r.Balance.set:
		return nil, errors.New("balance is missing")
	case r.Password == "":
		return nil, errors.New("password is missing")
	}
	card, err := domain.ParseCardNumber(r.CardNumber)
	if err != nil {
		return nil, fmt.Errorf("card_number: %w", err)
	}
	return domain.ReconstructAccount(
		card,
		r.UserName,
		r.UserSurname,
		r.UserAge,
		r.PhoneNumber,
		vo.New(r.Balance.amount),
		r.Password,
	), nil
}

// codec encodes and decodes a list of records.
type codec interface {
	marshal(records []Record) ([]byte, error)
	unmarshal(data []byte) ([]Record, error)
}

type jsonCodec struct{}

func (jsonCodec) marshal(records []Record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) unmarshal(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		return nil, errors.New("expected a list of accounts")
	}
	return records, nil
}

type yamlCodec struct{}

func (yamlCodec) marshal(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) unmarshal(data []byte) ([]Record, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
