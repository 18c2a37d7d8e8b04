package dto

// MatchRequest is the body of POST /api/projected-income/{id}/matches.
type MatchRequest struct {
	TransactionID string `json:"transaction_id"`
}

// LinkReceiptRequest is the body of POST /api/receipts/{id}/link.
type LinkReceiptRequest struct {
	ExpenseID string `json:"expense_id"`
}

// RefreshProjectedIncomeRequest is the body of POST /api/projected-income/refresh.
// An empty Through means the end of the month three months from today.
type RefreshProjectedIncomeRequest struct {
	Through string `json:"through"`
}
