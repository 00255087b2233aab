package semantic

// Match is a single retrieval hit, produced fresh per query.
// Distance is cosine distance (lower = more similar).
type Match struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Authors  []string `json:"authors"`
	Tags     []string `json:"tags"`
	Distance float32  `json:"distance"`
	Document string   `json:"document"`
}

// Record is a single document to store in the vector index.
type Record struct {
	ID        string // qdrant point id (UUID)
	Embedding []float32
	Payload   map[string]string // slug, title, authors, tags, summary, document
}
