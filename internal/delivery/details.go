package delivery

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const MinPhoneNumberLength = 8

type Details struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	StateOrCounty string `json:"state_or_county"`
	ZipOrPostcode string `json:"zip_or_postcode"`
	CountryCode   string `json:"country_code"`
	CountryName   string `json:"country_name"`
	Selected      bool   `json:"selected"`
}

func (d Details) IsValid() bool {
	if d.FirstName == "" || d.LastName == "" {
		return false
	}
	if !IsValidEmail(d.Email) {
		return false
	}
	if utf8.RuneCountInString(d.Phone) < MinPhoneNumberLength {
		return false
	}
	return d.Line1 != "" && d.City != "" && d.ZipOrPostcode != "" && d.StateOrCounty != ""
}

func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return strings.Contains(s[at+1:], ".")
}

// Equal compares addresses only; two entries for the same place are the
// same entry even if the contact data differs.
func (d Details) Equal(other Details) bool {
	return d.Line1 == other.Line1 &&
		d.Line2 == other.Line2 &&
		d.City == other.City &&
		d.StateOrCounty == other.StateOrCounty &&
		d.ZipOrPostcode == other.ZipOrPostcode &&
		d.CountryCode == other.CountryCode
}

func (d Details) Key() string {
	var sb strings.Builder
	sb.WriteString("ct:" + strings.ToLower(d.City) + ",")
	sb.WriteString("zp:" + strings.ToLower(d.ZipOrPostcode) + ",")
	sb.WriteString("st:" + strings.ToLower(d.StateOrCounty) + ",")
	sb.WriteString("cy:" + strings.ToLower(d.CountryName))
	return sb.String()
}

func (d Details) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

func (d Details) DescriptionWithoutLine1() string {
	var parts []string
	for _, part := range []string{d.Line2, d.City, d.StateOrCounty, d.ZipOrPostcode, d.CountryName} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// AddressLines is the postal block printed on the receipt.
func (d Details) AddressLines() []string {
	var lines []string
	if name := d.FullName(); name != "" {
		lines = append(lines, name)
	}
	if d.Line1 != "" {
		lines = append(lines, d.Line1)
	}
	if d.Line2 != "" {
		lines = append(lines, d.Line2)
	}
	if cityLine := strings.TrimSpace(d.City + " " + d.ZipOrPostcode); cityLine != "" {
		lines = append(lines, cityLine)
	}
	if d.CountryName != "" {
		lines = append(lines, d.CountryName)
	}
	return lines
}

// JSON is the recipient block sent along with a submitted order.
func (d Details) JSON() map[string]string {
	return map[string]string{
		"recipient_first_name": d.FirstName,
		"recipient_last_name":  d.LastName,
		"recipient_name":       d.FullName(),
		"address_line_1":       d.Line1,
		"address_line_2":       d.Line2,
		"city":                 d.City,
		"county_state":         d.StateOrCounty,
		"postcode":             d.ZipOrPostcode,
		"country_code":         d.CountryCode,
	}
}
