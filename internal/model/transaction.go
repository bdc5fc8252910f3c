package model

import "time"

// Transaction is a row in the `transactions` table. Amounts are integer
// cents and always positive; Type says whether the money came in or went
// out. CategoryID is nil when the category was deleted or never set.
type Transaction struct {
	ID          string    `json:"id"`          // transactions.id (uuid v4)
	UserID      string    `json:"userId"`      // transactions.user_id
	CategoryID  *string   `json:"categoryId"`  // transactions.category_id (nullable)
	Type        string    `json:"type"`        // transactions.type (income|expense)
	Title       string    `json:"title"`       // transactions.title
	Note        string    `json:"note"`        // transactions.note
	AmountCents int64     `json:"amountCents"` // transactions.amount_cents
	OccurredAt  time.Time `json:"occurredAt"`  // transactions.occurred_at (date)
	CreatedAt   time.Time `json:"createdAt"`   // transactions.created_at
	UpdatedAt   time.Time `json:"updatedAt"`   // transactions.updated_at
}

// CategorySummary is one line of the spending report: totals for a single
// category over the requested period. Category is nil for uncategorized
// transactions.
type CategorySummary struct {
	CategoryID   *string `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Kind         string  `json:"kind"`
	Count        int64   `json:"count"`
	TotalCents   int64   `json:"totalCents"`
}
