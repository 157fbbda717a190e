package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strconv"
	"strings"
	"time"
)

// Source kinds recorded on documents.
const (
	SourceS3 = "s3"
	SourceFS = "fs"
)

// DefaultDocType is used when an ingest request does not name one.
const DefaultDocType = "doc"

// Document is one logical source artifact. DocID is derived from SourceURI.
type Document struct {
	DocID     string
	Title     string
	DocType   string
	Source    string
	SourceURI string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChunkMetadata holds auxiliary facts stored next to each chunk.
type ChunkMetadata struct {
	Bucket     string `json:"bucket"`
	Key        string `json:"key"`
	Ext        string `json:"ext"`
	Bytes      int    `json:"bytes"`
	EmbedModel string `json:"embedModel"`
	EmbedDims  int    `json:"embedDims"`
}

// Chunk is one embeddable window of a document's text.
type Chunk struct {
	DocID     string
	ChunkID   string
	Index     int
	Title     string
	Section   string
	Content   string
	Metadata  ChunkMetadata
	Embedding []float32
}

// ScoredChunk is a similarity search hit. Score is 1 - cosine distance.
type ScoredChunk struct {
	DocID   string
	ChunkID string
	Title   string
	Content string
	Score   float64
}

// Citation references a chunk that was placed into the answer context.
type Citation struct {
	DocID   string  `json:"doc_id"`
	ChunkID string  `json:"chunk_id"`
	Title   *string `json:"title"`
	Score   float64 `json:"score"`
}

// SourceURI builds the canonical location of an object, e.g. s3://bucket/key.
func SourceURI(source, bucket, key string) string {
	scheme := source
	if source == SourceFS {
		scheme = "file"
	}
	return scheme + "://" + bucket + "/" + key
}

// DocID is the hex SHA-256 of the source URI. Re-ingesting the same source yields the same ID.
func DocID(sourceURI string) string {
	h := sha256.Sum256([]byte(sourceURI))
	return hex.EncodeToString(h[:])
}

// ChunkID joins a document ID and a chunk index.
func ChunkID(docID string, index int) string {
	return docID + ":" + strconv.Itoa(index)
}

// TitleFromKey returns the last path segment of an object key.
func TitleFromKey(key string) string {
	if t := path.Base(key); t != "." && t != "/" && t != "" {
		return t
	}
	return key
}

// ExtOfKey returns the lower-cased extension without the dot, or "".
func ExtOfKey(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(key[i+1:])
}

// IsFolderMarker reports whether key denotes a directory placeholder.
func IsFolderMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}

// PrefixForKey returns the parent path of key including the trailing slash, or "".
func PrefixForKey(key string) string {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return ""
	}
	return key[:i+1]
}

// ObjectInfo is one entry returned by an object listing.
type ObjectInfo struct {
	Key  string
	Size int64
}
