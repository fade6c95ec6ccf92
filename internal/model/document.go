package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// documentNamespace scopes name-based document ids.
var documentNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e39-9a0c-3d2f81b4c6e5")

// Metadata is optional information about where a document came from.
type Metadata struct {
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	Author    string `json:"author,omitempty" yaml:"author,omitempty"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Domain    string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// Document is the raw input to the parser.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// DocumentID derives a stable id from normalized document text.
// The same text always yields the same id.
func DocumentID(normalized string) string {
	return uuid.NewSHA1(documentNamespace, []byte(normalized)).String()
}

// SeqID formats a deterministic sequence id such as "E-003".
func SeqID(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// Stamp carries the per-output identity fields.
type Stamp struct {
	DocumentID  string    `json:"document_id"`
	GeneratedAt time.Time `json:"generated_at"`
}
