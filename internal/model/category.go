package model

import "time"

// Transaction and category kinds. Stored as an ENUM column, so adding a
// value requires a schema change as well.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// ValidKind reports whether k is one of the supported kinds.
func ValidKind(k string) bool {
	return k == KindIncome || k == KindExpense
}

// Category is a row in the `categories` table. Names are unique per user.
type Category struct {
	ID        string    `json:"id"`        // categories.id (uuid v4)
	UserID    string    `json:"userId"`    // categories.user_id
	Name      string    `json:"name"`      // categories.name
	Kind      string    `json:"kind"`      // categories.kind (income|expense)
	CreatedAt time.Time `json:"createdAt"` // categories.created_at
	UpdatedAt time.Time `json:"updatedAt"` // categories.updated_at
}

// DefaultCategories returns the starter set seeded for a new user.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Salary", Kind: KindIncome},
		{Name: "Groceries", Kind: KindExpense},
		{Name: "Rent", Kind: KindExpense},
		{Name: "Transport", Kind: KindExpense},
		{Name: "Other", Kind: KindExpense},
	}
}
