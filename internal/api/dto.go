package api

type SampleRequest struct {
	SeedText string `json:"seed_text"`
	Num      int    `json:"num"`
	Policy   string `json:"policy,omitempty"`
	Seed     *int64 `json:"seed,omitempty"`
}

type SampleResponse struct {
	ID     string   `json:"id"`
	Tokens []string `json:"tokens"`
	Text   string   `json:"text"`
}

type BeamRequest struct {
	SeedText  string `json:"seed_text"`
	Width     int    `json:"width"`
	MaxSample int    `json:"maxsample"`
	Seed      *int64 `json:"seed,omitempty"`
}

type BeamHypothesis struct {
	Tokens []int   `json:"tokens"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

type BeamResponse struct {
	ID         string           `json:"id"`
	Hypotheses []BeamHypothesis `json:"hypotheses"`
}

type ScoreRequest struct {
	Sentences []string `json:"sentences"`
}

type ScoreResponse struct {
	ID     string    `json:"id"`
	Scores []float64 `json:"scores"`
}

type ModelResponse struct {
	Kind      string `json:"kind"`
	VocabSize int    `json:"vocab_size"`
	Version   string `json:"version"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}
