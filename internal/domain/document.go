package domain

// RemoteFile is an opaque reference to content held by the vendor's file service
type RemoteFile struct {
	Name     string // service-side identifier used for status and delete
	URI      string // reference passed to the model
	MIMEType string
}

// Document is the source material as understood by the extraction backend.
// Exactly one of Text or Remote is set.
type Document struct {
	ID        string
	Source    string
	Text      string
	Remote    *RemoteFile
	PageCount int
}

// IsRemote returns true if the content lives in the vendor file service
func (d *Document) IsRemote() bool {
	return d.Remote != nil
}
