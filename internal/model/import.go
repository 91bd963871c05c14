package model

// Import row statuses.
const (
	ImportRowCreated = "created"
	ImportRowUpdated = "updated"
	ImportRowError   = "error"
)

// ImportRowResult is the per-row outcome of a CSV import. RowNumber is
// 1-based and offset by the header row, so the first data row is 2.
type ImportRowResult struct {
	RowNumber int    `json:"row_number"`
	Status    string `json:"status"`
	Details   string `json:"details,omitempty"`
	Sku       string `json:"sku,omitempty"`
}

// ImportResult summarizes a CSV import. Errors carries only the rows
// that failed; created and updated rows are counted but not echoed.
type ImportResult struct {
	ProcessedRows     int               `json:"processed_rows"`
	SuccessfulCreates int               `json:"successful_creates"`
	SuccessfulUpdates int               `json:"successful_updates"`
	Errors            []ImportRowResult `json:"errors"`
}
