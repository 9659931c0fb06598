package tavily

import (
	"encoding/json"
	"fmt"
)

type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query                    string      `json:"query"`
	SearchDepth              SearchDepth `json:"search_depth,omitempty"`
	Topic                    string      `json:"topic,omitempty"`
	MaxResults               int         `json:"max_results,omitempty"`
	IncludeAnswer            bool        `json:"include_answer,omitempty"`
	IncludeImages            bool        `json:"include_images,omitempty"`
	IncludeImageDescriptions bool        `json:"include_image_descriptions,omitempty"`
	IncludeDomains           []string    `json:"include_domains,omitempty"`
	ExcludeDomains           []string    `json:"exclude_domains,omitempty"`
}

type SearchResponse struct {
	Query        string   `json:"query"`
	Answer       string   `json:"answer,omitempty"`
	Images       []Image  `json:"images"`
	Results      []Result `json:"results"`
	ResponseTime float64  `json:"response_time"`
}

// Result is a ranked web result.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Image is an image result. The API returns bare URL strings unless image
// descriptions were requested, in which case it returns objects.
type Image struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

func (i *Image) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		i.URL = url
		i.Description = ""
		return nil
	}

	var obj struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("tavily: image must be a string or object: %w", err)
	}
	i.URL = obj.URL
	i.Description = obj.Description
	return nil
}
