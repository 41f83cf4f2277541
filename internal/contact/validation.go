package contact

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

var errInvalidPhone = errors.New("must be a valid phone number")

// Input is the body of create and update requests
type Input struct {
	Name     string  `json:"name"`
	Surname  string  `json:"surname"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Birthday string  `json:"birthday"`
	Info     *string `json:"info"`
}

// Validate checks field lengths, the email address, the birthday and that the
// phone parses for region
func (in Input) Validate(region string) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(2, 50)),
		validation.Field(&in.Surname, validation.Required, validation.Length(2, 50)),
		validation.Field(&in.Email, validation.Required, validation.Length(7, 100), is.Email),
		validation.Field(&in.Phone, validation.Required, validation.Length(7, 20), validation.By(phoneRule(region))),
		validation.Field(&in.Birthday, validation.Required, validation.Date(dateLayout)),
	)
}

func phoneRule(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := NormalizePhone(s, region); err != nil {
			return errInvalidPhone
		}
		return nil
	}
}

// NormalizePhone parses raw and formats it as E.164
func NormalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", errInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// toContact converts a validated input
func (in Input) toContact(region string) (*Contact, error) {
	birthday, err := ParseDate(in.Birthday)
	if err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(in.Phone, region)
	if err != nil {
		return nil, err
	}

	c := &Contact{
		Name:     strings.TrimSpace(in.Name),
		Surname:  strings.TrimSpace(in.Surname),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    phone,
		Birthday: birthday,
	}
	if in.Info != nil && strings.TrimSpace(*in.Info) != "" {
		info := *in.Info
		c.Info = &info
	}
	return c, nil
}
