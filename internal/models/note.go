package models

import (
	"net/url"
	"strings"
)

// FileBlockTypes are the block types whose url prop points at an uploaded object
var FileBlockTypes = []string{"image", "video", "pdf", "file"}

// Block is a single block of a note document. The schema belongs to the editor,
// so blocks are kept as free-form JSON objects.
type Block map[string]any

type NotePreview struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

type Note struct {
	ID      string  `json:"id" yaml:"id"`
	Title   string  `json:"title" yaml:"title"`
	Content []Block `json:"content" yaml:"content"`
}

type NoteContent struct {
	Content []Block `json:"content"`
}

type CreateNoteBody struct {
	Title       string `json:"title"`
	WorkspaceID string `json:"workspace_id"`
}

type RenameNoteBody struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type UpdateNoteContentBody struct {
	NoteID  string  `json:"note_id"`
	Content []Block `json:"content"`
}

// Type returns the block type or an empty string.
func (b Block) Type() string {
	blockType, _ := b["type"].(string)
	return blockType
}

// IsFileBlock is true for blocks that reference an uploaded object.
func (b Block) IsFileBlock() bool {
	blockType := b.Type()
	for _, t := range FileBlockTypes {
		if t == blockType {
			return true
		}
	}
	return false
}

// FileURL returns the url prop of a block, if any.
func (b Block) FileURL() (string, bool) {
	props, ok := b["props"].(map[string]any)
	if !ok {
		return "", false
	}
	fileURL, ok := props["url"].(string)
	return fileURL, ok
}

// WithFileURL returns a copy of the block with the url prop replaced.
func (b Block) WithFileURL(fileURL string) Block {
	output := Block{}
	for k, v := range b {
		output[k] = v
	}
	props := map[string]any{}
	if oldProps, ok := b["props"].(map[string]any); ok {
		for k, v := range oldProps {
			props[k] = v
		}
	}
	props["url"] = fileURL
	output["props"] = props
	return output
}

// ExtractObjectKey turns a presigned URL back into its object key.
// Values that are not http(s) URLs are already keys and are returned as is.
func ExtractObjectKey(urlOrKey string) string {
	if !strings.HasPrefix(urlOrKey, "http") {
		return urlOrKey
	}
	parsed, err := url.Parse(urlOrKey)
	if err != nil {
		return urlOrKey
	}
	return strings.TrimPrefix(parsed.Path, "/")
}

// NormalizeFileBlocks replaces the display URLs of file blocks with object keys
// so that expiring presigned URLs are never persisted.
func NormalizeFileBlocks(blocks []Block) []Block {
	output := make([]Block, 0, len(blocks))
	for _, block := range blocks {
		if block == nil || !block.IsFileBlock() {
			output = append(output, block)
			continue
		}
		fileURL, ok := block.FileURL()
		if !ok {
			output = append(output, block)
			continue
		}
		output = append(output, block.WithFileURL(ExtractObjectKey(fileURL)))
	}
	return output
}
