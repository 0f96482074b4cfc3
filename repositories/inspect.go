package repositories

import (
	"fmt"
	"strings"
	"time"
)

// Record is a human readable view of a raw Badger entry, for inspection tools.
type Record struct {
	Kind   string
	ID     string
	At     time.Time
	Detail string
}

// Describe decodes a raw entry according to its key prefix.
// Unknown or undecodable entries are reported with their size only.
func Describe(key string, value []byte) Record {
	kind, _, _ := strings.Cut(key, ":")
	record := Record{Kind: strings.ToUpper(kind), Detail: fmt.Sprintf("Size: %d bytes", len(value))}

	switch kind {
	case "chat":
		c, err := decodeChat(value)
		if err != nil {
			return record
		}
		record.ID, record.At = c.ID, c.UpdatedAt
		record.Detail = strings.Join(c.Users[:], " <-> ")
		if c.LatestMessage != nil {
			record.Detail += fmt.Sprintf(" | %s: %s", c.LatestMessage.Sender, c.LatestMessage.Text)
		}
	case "msg":
		m, err := decodeMessage(value)
		if err != nil {
			return record
		}
		record.ID, record.At = m.ID, m.CreatedAt
		record.Detail = fmt.Sprintf("%s [%s] %s", m.Sender, m.Type, m.Text)
		if m.Seen {
			record.Detail += " (seen)"
		}
	case "pair", "userchat", "msgid":
		record.Detail = string(value)
	}
	return record
}
