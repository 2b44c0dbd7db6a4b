// Package language picks the answer language of a question.
package language

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Language is an answer language the chatbot has instructions for
type Language string

const (
	German  Language = "de"
	English Language = "en"
)

var options = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Deu: true,
	},
}

// Detect returns German when the text reads as German and English otherwise
func Detect(text string) Language {
	if strings.TrimSpace(text) == "" {
		return English
	}
	if whatlanggo.DetectWithOptions(text, options).Lang == whatlanggo.Deu {
		return German
	}
	return English
}

// Detector resolves the language for a question under a configured mode
type Detector struct {
	forced Language
}

// NewDetector accepts "auto", "de" or "en"
func NewDetector(mode string) (*Detector, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return &Detector{}, nil
	case string(German):
		return &Detector{forced: German}, nil
	case string(English):
		return &Detector{forced: English}, nil
	default:
		return nil, fmt.Errorf("unknown language mode %q", mode)
	}
}

// Detect applies the forced language if any, else detects
func (d *Detector) Detect(text string) Language {
	if d != nil && d.forced != "" {
		return d.forced
	}
	return Detect(text)
}
