package badger

import "fmt"

const (
	chunkPrefix  = "chunk/"
	markerPrefix = "doc/committed/"
)

// chunkKey orders a document's chunks by ordinal.
// Format: chunk/<session>/<document>/<ordinal>
func chunkKey(sessionID, documentID string, ordinal int) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%08d", chunkPrefix, sessionID, documentID, ordinal))
}

func documentChunkPrefix(sessionID, documentID string) []byte {
	return []byte(chunkPrefix + sessionID + "/" + documentID + "/")
}

func sessionChunkPrefix(sessionID string) []byte {
	if sessionID == "" {
		return []byte(chunkPrefix)
	}
	return []byte(chunkPrefix + sessionID + "/")
}

// markerKey marks a document's chunks as committed. The value is the session ID.
func markerKey(documentID string) []byte {
	return []byte(markerPrefix + documentID)
}
