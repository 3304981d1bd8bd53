package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrIdentityWithoutMail is returned when an identity record carries no mail.
var ErrIdentityWithoutMail = errors.New("identity record has no mail")

// Identity is the subscriber record returned by the Subscription Service.
type Identity struct {
	Name string
	Mail string
	IP   string

	// Extra holds any additional fields echoed by the service, untouched.
	Extra map[string]json.RawMessage
}

// Validate reports whether the record is usable as a console identity.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.Mail) == "" {
		return ErrIdentityWithoutMail
	}
	return nil
}

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode identity: %w", err)
	}
	if fields == nil {
		return errors.New("decode identity: record is null")
	}

	var out Identity
	for key, dst := range map[string]*string{"name": &out.Name, "mail": &out.Mail, "ip": &out.IP} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		delete(fields, key)
		if string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decode identity field %q: %w", key, err)
		}
	}
	if len(fields) > 0 {
		out.Extra = fields
	}

	*i = out
	return nil
}

// MarshalJSON writes the known fields together with Extra.
func (i Identity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Extra)+3)
	for k, v := range i.Extra {
		out[k] = v
	}
	out["name"] = i.Name
	out["mail"] = i.Mail
	out["ip"] = i.IP
	return json.Marshal(out)
}
