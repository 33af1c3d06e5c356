package document

import "time"

// Document is one uploaded file owned by a single user. Content holds the
// text extracted at upload time and may be empty when extraction yielded
// nothing. Documents are immutable after creation except for deletion.
type Document struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	UserID       string    `json:"userId" bson:"userId"`
	Filename     string    `json:"filename" bson:"filename"`
	OriginalName string    `json:"originalName" bson:"originalName"`
	FileType     string    `json:"fileType" bson:"fileType"`
	Content      string    `json:"content,omitempty" bson:"content,omitempty"`
	UploadDate   time.Time `json:"uploadDate" bson:"uploadDate"`
}
