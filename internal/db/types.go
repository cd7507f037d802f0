package db

import (
	"fmt"
	"time"
)

// Default free generations granted to a new user
const (
	DefaultFreePPTX = 5
	DefaultFreeDOCX = 5
)

// User is a Telegram user known to the bot
type User struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Balance   int       `json:"balance"`
	FreePPTX  int       `json:"free_pptx"`
	FreeDOCX  int       `json:"free_docx"`
	IsBlocked bool      `json:"is_blocked"`
	JoinedAt  time.Time `json:"joined_at"`
}

// FreeQuota returns the remaining free generations of the given kind
func (u *User) FreeQuota(q Quota) int {
	if q == QuotaPPTX {
		return u.FreePPTX
	}
	return u.FreeDOCX
}

// Quota names a free generation counter column
type Quota string

const (
	QuotaPPTX Quota = "free_pptx"
	QuotaDOCX Quota = "free_docx"
)

// column returns the column name for q, rejecting anything else so the
// value can be spliced into SQL
func (q Quota) column() (string, error) {
	switch q {
	case QuotaPPTX, QuotaDOCX:
		return string(q), nil
	default:
		return "", fmt.Errorf("unknown quota %q", string(q))
	}
}

// Sample is an example document admins upload for users to browse
type Sample struct {
	ID       int    `json:"id"`
	FileID   string `json:"file_id"`
	Caption  string `json:"caption"`
	FileType string `json:"file_type"`
}

// Sample file types
const (
	SampleDocument = "document"
	SamplePhoto    = "photo"
)

// Stats is the admin dashboard summary
type Stats struct {
	TotalUsers   int `json:"total_users"`
	BlockedUsers int `json:"blocked_users"`
	NewToday     int `json:"new_today"`
	IncomeToday  int `json:"income_today"`
	Documents    int `json:"documents"`
}

// TransactionRow is one approved payment joined with the payer name
type TransactionRow struct {
	CreatedAt time.Time `json:"created_at"`
	FullName  string    `json:"full_name"`
	Amount    int       `json:"amount"`
}

// FinancialReport summarizes approved payments
type FinancialReport struct {
	Daily   int              `json:"daily"`
	Monthly int              `json:"monthly"`
	Total   int              `json:"total"`
	Recent  []TransactionRow `json:"recent"`
}

// UsageRow is one generation log entry joined with the user name
type UsageRow struct {
	CreatedAt time.Time `json:"created_at"`
	FullName  string    `json:"full_name"`
	DocType   string    `json:"doc_type"`
	Topic     string    `json:"topic"`
	Pages     int       `json:"pages"`
}

// recentLimit caps report listings
const recentLimit = 20
