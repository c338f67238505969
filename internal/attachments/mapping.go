package attachments

import (
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/query"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/repository"
)

const columns = "id, incident_id, filename, content_type, size_bytes, page_count, storage_key, uploaded_by, uploaded_at"

var projection = query.
	NewProjectionMap("public", "incident_attachments", "a").
	Project("id", "ID").
	Project("incident_id", "IncidentID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("uploaded_by", "UploadedBy").
	Project("uploaded_at", "UploadedAt")

var defaultSort = query.SortField{Field: "UploadedAt"}

func scanAttachment(s repository.Scanner) (Attachment, error) {
	var a Attachment
	err := s.Scan(
		&a.ID,
		&a.IncidentID,
		&a.Filename,
		&a.ContentType,
		&a.SizeBytes,
		&a.PageCount,
		&a.StorageKey,
		&a.UploadedBy,
		&a.UploadedAt,
	)
	return a, err
}
