package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	memberKeyUserID       = "userId"
	memberKeyConnectionID = "connectionId"
)

// Member is the identity a client supplies when subscribing to a presence
// channel. Attributes are passed through untouched.
type Member struct {
	UserID       string
	ConnectionID string
	Attributes   map[string]json.RawMessage
}

// ParseMember decodes a raw presence payload. The payload must be a JSON
// object carrying a non-empty userId (string or number).
func ParseMember(raw string) (Member, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Member{}, fmt.Errorf("%w: %v", ErrMalformedPresencePayload, err)
	}
	if fields == nil {
		return Member{}, fmt.Errorf("%w: payload is not an object", ErrMalformedPresencePayload)
	}

	rawID, ok := fields[memberKeyUserID]
	if !ok {
		return Member{}, fmt.Errorf("%w: missing userId", ErrMalformedPresencePayload)
	}
	userID, err := decodeUserID(rawID)
	if err != nil {
		return Member{}, err
	}

	delete(fields, memberKeyUserID)
	delete(fields, memberKeyConnectionID)

	return Member{UserID: userID, Attributes: fields}, nil
}

func decodeUserID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: empty userId", ErrMalformedPresencePayload)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: userId must be a string or number", ErrMalformedPresencePayload)
	}
	return n.String(), nil
}

// WithoutConnection returns a copy describing the user rather than one of
// its connections.
func (m Member) WithoutConnection() Member {
	m.ConnectionID = ""
	return m
}

// MarshalJSON flattens attributes next to userId and connectionId.
func (m Member) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Attributes)+2)
	for k, v := range m.Attributes {
		if k == memberKeyUserID || k == memberKeyConnectionID {
			continue
		}
		out[k] = v
	}
	uid, err := json.Marshal(m.UserID)
	if err != nil {
		return nil, err
	}
	out[memberKeyUserID] = uid
	if m.ConnectionID != "" {
		cid, err := json.Marshal(m.ConnectionID)
		if err != nil {
			return nil, err
		}
		out[memberKeyConnectionID] = cid
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Member) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMember(string(data))
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields[memberKeyConnectionID]; ok {
		if err := json.Unmarshal(raw, &parsed.ConnectionID); err != nil {
			return err
		}
	}
	*m = parsed
	return nil
}
