package contact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without time of day, encoded as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC of the same calendar day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Contact struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Birthday  Date       `json:"birthday"`
	Info      *string    `json:"info"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Filter narrows a contact listing. Empty fields match everything.
type Filter struct {
	Name    string
	Surname string
	Email   string
	Skip    int
	Limit   int
}

// NextBirthday returns the first anniversary of birthday on or after today.
// Feb 29 falls on Feb 28 in common years.
func NextBirthday(birthday Date, today Date) Date {
	next := anniversary(birthday, today.Year())
	if next.Before(today.Time) {
		next = anniversary(birthday, today.Year()+1)
	}
	return next
}

func anniversary(birthday Date, year int) Date {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return NewDate(year, month, day)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
