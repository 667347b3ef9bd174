package types

import (
	"time"

	"github.com/google/uuid"
)

// MediaFolder groups uploaded assets in the agency media library.
type MediaFolder struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaAsset is the metadata row of a stored file. A nil FolderID places the
// asset at the library root.
type MediaAsset struct {
	ID        uuid.UUID  `json:"id"`
	FolderID  *uuid.UUID `json:"folder_id"`
	FileName  string     `json:"file_name"`
	FilePath  string     `json:"file_path"`
	PublicURL string     `json:"public_url"`
	FileSize  int64      `json:"file_size"`
	CreatedAt time.Time  `json:"created_at"`
}

type MediaListQuery struct {
	FolderID *uuid.UUID
	Limit    int
	Offset   int
}

// MediaListing is one page of a folder. Folders are only filled on the first
// page.
type MediaListing struct {
	Folders []MediaFolder `json:"folders"`
	Assets  []MediaAsset  `json:"assets"`
	Total   int           `json:"total"`
	HasMore bool          `json:"hasMore"`
}

type MediaFolderRequest struct {
	Name string `json:"name"`
}

type MediaFolderResponse struct {
	Folder *MediaFolder `json:"folder"`
}
