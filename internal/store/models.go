package store

// PriceRecord is one row of the mandi price table. Prices are rupees per quintal.
type PriceRecord struct {
	State       string  `json:"state"`
	District    string  `json:"district"`
	Market      string  `json:"market"`
	Commodity   string  `json:"commodity"`
	Variety     string  `json:"variety"`
	Grade       string  `json:"grade"`
	ArrivalDate string  `json:"arrival_date"` // YYYY-MM-DD when parseable
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	ModalPrice  float64 `json:"modal_price"`
}

// PolicySection is a chunk of a policy document with its embedding.
type PolicySection struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Position  int       `json:"position"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

type PolicyMatch struct {
	PolicySection
	Similarity float64 `json:"similarity"`
}

// QueryResult holds rows of an ad-hoc read-only query rendered as text.
type QueryResult struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated,omitempty"`
}
