package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HHN/idealize-recommendation/internal/apptype"
)

// ParseOutput extracts the answer object from the model's final text.
// Markdown fences and prose around the answer are ignored: each '{' is tried
// in turn until one starts a decodable object. Fields outside the answer
// shape are dropped.
func ParseOutput(text string) (apptype.ChatResponse, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return apptype.ChatResponse{}, fmt.Errorf("%w: no JSON object in agent output", ErrMalformedOutput)
	}

	var (
		resp     apptype.ChatResponse
		firstErr error
	)
	for {
		resp = apptype.ChatResponse{}
		err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&resp)
		if err == nil {
			break
		}
		if firstErr == nil {
			firstErr = err
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			return apptype.ChatResponse{}, fmt.Errorf("%w: %v", ErrMalformedOutput, firstErr)
		}
		start += next + 1
	}
	if resp.Projects == nil {
		resp.Projects = []apptype.ProjectRef{}
	}
	if resp.Users == nil {
		resp.Users = []apptype.UserRef{}
	}
	for i := range resp.Users {
		if resp.Users[i].InterestedTags == nil {
			resp.Users[i].InterestedTags = []string{}
		}
	}
	return resp, nil
}

// Format encodes an answer compactly, leaving non-ASCII and HTML characters
// unescaped.
func Format(resp apptype.ChatResponse) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
