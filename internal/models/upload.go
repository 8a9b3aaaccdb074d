package models

type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

type UploadURL struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ResolvedURL struct {
	URL string `json:"url"`
}

type ProcessPDFRequest struct {
	ObjectKey string `json:"objectKey"`
	NoteID    string `json:"noteId"`
}
