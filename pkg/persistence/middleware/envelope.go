package middleware

import (
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Middlewares that replace a document's content wholesale still have to
// hand the next store a well-formed document. The payload travels in a
// single synthetic "vault" node; the project name stays in clear so
// listings and monitoring remain useful.

const vaultNodeID = "__vault__"

// sealEnvelope builds the opaque carrier document for a payload.
func sealEnvelope(name, vaultType, payloadKey, payload string) *document.GraphDocument {
	return &document.GraphDocument{
		Name: name,
		Nodes: []domain.Node{
			{
				ID:   vaultNodeID,
				Type: vaultType,
				Data: domain.NodeData{
					Extra: map[string]any{payloadKey: payload},
				},
			},
		},
	}
}

// openEnvelope extracts the payload if doc is a carrier of the given
// vault type; ok is false for ordinary documents.
func openEnvelope(doc *document.GraphDocument, vaultType, payloadKey string) (payload string, ok bool) {
	if doc == nil || len(doc.Nodes) != 1 {
		return "", false
	}
	n := doc.Nodes[0]
	if n.ID != vaultNodeID || n.Type != vaultType {
		return "", false
	}
	payload, ok = n.Data.Extra[payloadKey].(string)
	return payload, ok
}
