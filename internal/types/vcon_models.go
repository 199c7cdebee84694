package types

// VconVersion is the envelope version written into every record.
const VconVersion = "0.0.1"

// Analysis entry types.
const (
	AnalysisTranscript           = "transcript"
	AnalysisSummary              = "summary"
	AnalysisSentiment            = "sentiment"
	AnalysisBusinessIntelligence = "business_intelligence"
	AnalysisActionItems          = "action_items"
)

// VconRecord is the conversation-record envelope. It is write-once.
type VconRecord struct {
	Vcon        string           `json:"vcon"`
	UUID        string           `json:"uuid"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	Subject     string           `json:"subject"`
	Parties     []VconParty      `json:"parties"`
	Dialog      []VconDialog     `json:"dialog"`
	Analysis    []VconAnalysis   `json:"analysis"`
	Attachments []VconAttachment `json:"attachments"`
}

type VconParty struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type VconDialog struct {
	Type     string  `json:"type"`
	Start    string  `json:"start"`
	Duration float64 `json:"duration"`
	Parties  []int   `json:"parties"`
	Mimetype string  `json:"mimetype"`
	Filename string  `json:"filename"`
	URL      string  `json:"url"`
}

type VconAnalysis struct {
	Type    string `json:"type"`
	Dialog  int    `json:"dialog"`
	Body    any    `json:"body"`
	Vendor  string `json:"vendor"`
	Product string `json:"product"`
}

type VconAttachment struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Body     string `json:"body"`
}
