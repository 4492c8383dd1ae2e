package analysis

// AnalysisResult is the verdict returned by the analysis service. The server is
// authoritative: fields it omits decode to their zero values.
type AnalysisResult struct {
	Type             string   `json:"type"`
	CredibilityScore float64  `json:"credibilityScore"`
	Analysis         string   `json:"analysis"`
	Flags            Flags    `json:"flags"`
	Sources          []string `json:"sources"`
	Details          Details  `json:"details"`
}

// Flags are the warnings the service raised about the content.
type Flags struct {
	PotentialMisinformation bool `json:"potentialMisinformation"`
	NeedsFactChecking       bool `json:"needsFactChecking"`
	BiasDetected            bool `json:"biasDetected"`
	ManipulatedContent      bool `json:"manipulatedContent"`
}

// Any reports whether at least one flag is raised.
func (f Flags) Any() bool {
	return f.PotentialMisinformation || f.NeedsFactChecking || f.BiasDetected || f.ManipulatedContent
}

// Details holds the supporting signals behind the score.
type Details struct {
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	KeyTerms   []string `json:"keyTerms"`
}

// Kind names the payload a request carried.
type Kind string

const (
	KindText  Kind = "text"
	KindURL   Kind = "url"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

type envelope struct {
	Result *AnalysisResult `json:"result"`
}

type textRequest struct {
	Text string `json:"text"`
}

type urlRequest struct {
	URL string `json:"url"`
}
