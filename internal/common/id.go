package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewInsightID generates a unique insight ID with the "ins_" prefix
func NewInsightID() string {
	return "ins_" + uuid.New().String()
}

// NewConnectionID generates a unique connection ID with the "conn_" prefix
func NewConnectionID() string {
	return "conn_" + uuid.New().String()
}
