package gmail

import (
	"slices"
	"strings"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"google.golang.org/api/gmail/v1"
)

// Gmail tab labels, checked in this order
var categoryLabels = []struct {
	label    string
	category emaildomain.ProviderCategory
}{
	{"CATEGORY_SOCIAL", emaildomain.ProviderCategorySocial},
	{"CATEGORY_PROMOTIONS", emaildomain.ProviderCategoryPromotions},
	{"CATEGORY_UPDATES", emaildomain.ProviderCategoryUpdates},
	{"CATEGORY_FORUMS", emaildomain.ProviderCategoryForums},
}

// ConvertMessage normalizes a Gmail API message. It is the only place raw
// provider payloads are turned into EmailMessage values.
func ConvertMessage(msg *gmail.Message) emaildomain.EmailMessage {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	labels := msg.LabelIds
	if labels == nil {
		labels = []string{}
	}

	return emaildomain.EmailMessage{
		ID:            msg.Id,
		ThreadID:      msg.ThreadId,
		Snippet:       msg.Snippet,
		HistoryID:     msg.HistoryId,
		InternalDate:  msg.InternalDate,
		Subject:       getHeader(headers, "Subject"),
		From:          getHeader(headers, "From"),
		To:            getHeader(headers, "To"),
		Date:          time.UnixMilli(msg.InternalDate).UTC(),
		Labels:        labels,
		IsUnread:      slices.Contains(labels, "UNREAD"),
		HasAttachment: hasAttachment(msg.Payload),
		Category:      providerCategory(labels),
		Size:          msg.SizeEstimate,
	}
}

// ExtractAddress returns the address inside angle brackets of a From header,
// or the raw value when there are none.
func ExtractAddress(from string) string {
	open := strings.Index(from, "<")
	if open < 0 {
		return from
	}
	end := strings.LastIndex(from, ">")
	if end <= open+1 {
		return from
	}
	return from[open+1 : end]
}

func providerCategory(labels []string) emaildomain.ProviderCategory {
	for _, c := range categoryLabels {
		if slices.Contains(labels, c.label) {
			return c.category
		}
	}
	return emaildomain.ProviderCategoryPrimary
}

// Header names are case-insensitive
func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func hasAttachment(payload *gmail.MessagePart) bool {
	if payload == nil {
		return false
	}
	for _, part := range payload.Parts {
		if part.Filename != "" || hasAttachment(part) {
			return true
		}
	}
	return false
}
