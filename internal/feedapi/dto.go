package feedapi

// pageResponse is the top-level JSON envelope of a content page
type pageResponse struct {
	Items []contentItemDTO `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// contentItemDTO mirrors the API's item representation
type contentItemDTO struct {
	ID        int64  `json:"id"`
	OwnerID   int64  `json:"ownerId"`
	Caption   string `json:"caption"`
	MediaURL  string `json:"mediaUrl"`
	ThumbURL  string `json:"thumbUrl"`
	MediaType string `json:"mediaType"` // "image", "video", or empty
	CreatedAt string `json:"createdAt"` // RFC 3339

	Width      int   `json:"width"`
	Height     int   `json:"height"`
	DurationMs int64 `json:"durationMs"`
	SizeBytes  int64 `json:"sizeBytes"`
}
