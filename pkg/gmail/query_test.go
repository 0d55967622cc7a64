package gmail

import (
	"testing"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilterQuery(t *testing.T) {
	cutoff := time.Date(2024, 7, 5, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter emaildomain.MessageFilter
		want   string
	}{
		{"empty", emaildomain.MessageFilter{}, ""},
		{"older than", emaildomain.MessageFilter{OlderThan: &cutoff}, "before:2024/07/05"},
		{
			"all terms in fixed order",
			emaildomain.MessageFilter{
				IsUnread:      true,
				Category:      emaildomain.ProviderCategorySocial,
				HasAttachment: true,
				Sender:        "news@site.com",
				OlderThan:     &cutoff,
			},
			"before:2024/07/05 from:news@site.com has:attachment category:social is:unread",
		},
		{"zero time ignored", emaildomain.MessageFilter{OlderThan: &time.Time{}, IsUnread: true}, "is:unread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilterQuery(tt.filter))
		})
	}
}
