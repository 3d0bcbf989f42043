package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// CursorPage is one page of keyset-paginated rows. NextCursor is empty on the
// last page.
type CursorPage struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

type OffsetPage struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// OrderCursor is the (created_at, id) position of the last order on a page.
type OrderCursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

func EncodeCursor(cursor OrderCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor from EncodeCursor. The first page has no
// cursor, so the empty string is rejected like any other malformed value.
func DecodeCursor(encoded string) (OrderCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return OrderCursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var cursor OrderCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return OrderCursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor.CreatedAt.IsZero() || cursor.ID == uuid.Nil {
		return OrderCursor{}, ErrInvalidCursor
	}

	return cursor, nil
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
