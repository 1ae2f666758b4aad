package dto

// UploadResponse summarizes one processed document upload.
type UploadResponse struct {
	RunID         string `json:"run_id"`
	Filename      string `json:"filename"`
	Title         string `json:"title"`
	Namespace     string `json:"namespace"`
	EntityCount   int    `json:"entity_count"`
	RelationCount int    `json:"relation_count"`
	ChunksTotal   int    `json:"chunks_total"`
	ChunksFailed  int    `json:"chunks_failed"`
	// TextPreview is the first part of the extracted text, for a quick
	// visual check that OCR/parsing found the right content.
	TextPreview string `json:"text_preview"`
}

// GraphsResponse lists the document namespaces available for retrieval.
type GraphsResponse struct {
	Graphs []string `json:"graphs"`
	Total  int      `json:"total"`
}
