package gmail

import (
	"strings"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
)

// BuildFilterQuery renders a filter as a Gmail search string
func BuildFilterQuery(f emaildomain.MessageFilter) string {
	var terms []string

	if f.OlderThan != nil && !f.OlderThan.IsZero() {
		terms = append(terms, "before:"+f.OlderThan.Format("2006/01/02"))
	}
	if f.Sender != "" {
		terms = append(terms, "from:"+f.Sender)
	}
	if f.HasAttachment {
		terms = append(terms, "has:attachment")
	}
	if f.Category != "" {
		terms = append(terms, "category:"+string(f.Category))
	}
	if f.IsUnread {
		terms = append(terms, "is:unread")
	}

	return strings.Join(terms, " ")
}
