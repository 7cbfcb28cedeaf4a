// Package transcript is an append-only log of question/answer turns kept as a
// hash chain: every entry is content-addressed and links to the entry before it.
package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Entry is a single content-addressed turn in the transcript.
type Entry struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous entry hash.
	// This will be nil for the first entry.
	ParentHash *string `json:"parent_hash"`

	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// hashInput is the canonical form that gets hashed.
type hashInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Parent   string `json:"parent,omitempty"`
}

// NewEntry creates an entry with the computed hash for the given turn.
func NewEntry(question, answer string, parent *Entry) *Entry {
	e := &Entry{
		Question: question,
		Answer:   answer,
	}

	if parent != nil {
		h := parent.Hash
		e.ParentHash = &h
	}

	e.Hash = e.computeHash()
	return e
}

func (e *Entry) computeHash() string {
	i := &hashInput{
		Question: e.Question,
		Answer:   e.Answer,
	}

	if e.ParentHash != nil {
		i.Parent = *e.ParentHash
	}

	// Struct field order gives a deterministic encoding
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
