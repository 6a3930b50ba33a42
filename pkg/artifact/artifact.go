package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Artifact is an immutable record of one model completion: the raw text a
// provider returned, together with enough provenance to audit it later.
type Artifact struct {
	Content   string    `json:"content"`
	Adapter   string    `json:"adapter"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Hash      string    `json:"hash"`
}

// New creates an Artifact with its content hash computed.
func New(content, adapter, model, prompt string) *Artifact {
	a := &Artifact{
		Content:   content,
		Adapter:   adapter,
		Model:     model,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
	}
	a.Hash = a.computeHash()
	return a
}

func (a *Artifact) computeHash() string {
	h := sha256.New()
	h.Write([]byte(a.Content))
	h.Write([]byte(a.Adapter))
	h.Write([]byte(a.Model))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
