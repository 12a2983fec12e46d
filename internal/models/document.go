package models

// Document is a stored file attached to a matter. FilePath is the storage key.
// Deleting the matter deletes the row; the stored file is removed by the caller.
type Document struct {
	Model
	Name        string  `gorm:"size:255;not null" json:"name"`
	FileName    string  `gorm:"size:255;not null" json:"file_name"`
	FilePath    string  `gorm:"size:500;not null" json:"-"`
	FileSize    int64   `gorm:"not null;default:0" json:"file_size"`
	MimeType    string  `gorm:"size:100" json:"mime_type"`
	Version     int     `gorm:"not null;default:1" json:"version"`
	Tags        string  `gorm:"size:500" json:"tags,omitempty"`
	TextContent string  `gorm:"type:text" json:"-"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	GroupKey    string  `gorm:"size:36;index" json:"group_key,omitempty"`
	UploadedBy  *string `gorm:"size:36" json:"uploaded_by,omitempty"`

	MatterID *string `gorm:"size:36;index" json:"matter_id,omitempty"`
	Matter   *Matter `gorm:"constraint:OnDelete:CASCADE" json:"matter,omitempty"`
}

// DocumentTemplate is a drafting template; Variables lists placeholder names, comma separated.
type DocumentTemplate struct {
	Model
	Name        string  `gorm:"size:255;not null" json:"name"`
	Category    string  `gorm:"size:100" json:"category"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Content     string  `gorm:"type:text;not null" json:"content"`
	Variables   string  `gorm:"size:500" json:"variables,omitempty"`
	IsActive    bool    `gorm:"not null" json:"is_active"`
	CreatedBy   *string `gorm:"size:36" json:"created_by,omitempty"`
}
