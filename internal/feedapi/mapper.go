package feedapi

import (
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// mapItems converts API DTOs to domain items
func mapItems(dtos []contentItemDTO, ownerID int64) []domain.ContentItem {
	items := make([]domain.ContentItem, 0, len(dtos))
	for _, dto := range dtos {
		items = append(items, mapItem(dto, ownerID))
	}
	return items
}

// mapItem converts a single DTO to a domain item
func mapItem(dto contentItemDTO, ownerID int64) domain.ContentItem {
	owner := dto.OwnerID
	if owner == 0 {
		owner = ownerID
	}

	created := time.Time{}
	if dto.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, dto.CreatedAt); err == nil {
			created = t
		}
	}

	return domain.ContentItem{
		ID:        dto.ID,
		OwnerID:   owner,
		Caption:   dto.Caption,
		MediaURL:  dto.MediaURL,
		ThumbURL:  dto.ThumbURL,
		MediaType: mapMediaType(dto.MediaType, dto.MediaURL),
		CreatedAt: created,
		Width:     dto.Width,
		Height:    dto.Height,
		Duration:  time.Duration(dto.DurationMs) * time.Millisecond,
		Size:      dto.SizeBytes,
	}
}

// mapMediaType normalizes the API's media type string
func mapMediaType(raw, mediaURL string) domain.MediaType {
	switch raw {
	case "image":
		return domain.MediaTypeImage
	case "video":
		return domain.MediaTypeVideo
	case "":
		// Some backends omit the type for images
		if mediaURL != "" {
			return domain.MediaTypeImage
		}
		return domain.MediaTypeNone
	default:
		return domain.MediaTypeNone
	}
}
