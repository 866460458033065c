package doctree

// Page is the extracted text of one physical page.
type Page struct {
	Number int    // 1-based page number
	Text   string // Normalized page text (may be empty)
}

// Article is a numbered unit of the regulation, spanning one or more pages.
type Article struct {
	Number   int
	PageFrom int
	PageTo   int
	Text     string // Body text including the heading line
}

// Chunk is a bounded, possibly overlapping slice of an Article's text.
type Chunk struct {
	ID         string `json:"id"`
	Article    int    `json:"article"`
	ChunkIndex int    `json:"chunk_index"` // 1-based within the article
	PageFrom   int    `json:"page_from"`
	PageTo     int    `json:"page_to"`
	Text       string `json:"text"`
}

// Source records where an index was built from.
type Source struct {
	Celex   string `json:"celex"`
	Lang    string `json:"lang"`
	PDFPath string `json:"pdf_path"`
}

// Stats summarizes a build.
type Stats struct {
	Pages         int `json:"pages"`
	ArticlesFound int `json:"articles_found"`
	Chunks        int `json:"chunks"`
}

// Index is the complete output artifact read by the search consumer.
type Index struct {
	Source Source  `json:"source"`
	Stats  Stats   `json:"stats"`
	Chunks []Chunk `json:"chunks"`
}
