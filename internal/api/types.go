package api

// PoemRequest is the body of POST /v1/poems.
type PoemRequest struct {
	Genre       string   `json:"genre,omitempty"`
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
	Strategy    string   `json:"strategy,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

type Poem struct {
	ID          string     `json:"id"`
	Object      string     `json:"object"`
	Created     int64      `json:"created"`
	Genre       string     `json:"genre"`
	Prompt      string     `json:"prompt"`
	Temperature float64    `json:"temperature"`
	Strategy    string     `json:"strategy"`
	Text        string     `json:"text"`
	Lines       []string   `json:"lines"`
	Warning     string     `json:"warning,omitempty"`
	Stats       *PoemStats `json:"stats,omitempty"`
}

type PoemStats struct {
	PromptTokens int     `json:"prompt_tokens"`
	DecodeSteps  int     `json:"decode_steps"`
	ModelCalls   int     `json:"model_calls"`
	Padded       int     `json:"padded,omitempty"`
	DurationMS   float64 `json:"duration_ms"`
}

// PoemChunk carries one displayed character of a streamed poem.
type PoemChunk struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Index  int    `json:"index"`
	Delta  string `json:"delta"`
}

type GenreInfo struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Length  int      `json:"length"`
	Aliases []string `json:"aliases,omitempty"`
	Default bool     `json:"default,omitempty"`
}

type GenreList struct {
	Object string      `json:"object"`
	Data   []GenreInfo `json:"data"`
}

type DeletePoemResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}
