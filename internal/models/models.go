package models

// EncodingOption is one fetchable rendition of a video. A slice of these is
// what the enumerator produces and what the resolution cache stores per topic,
// ordered by Resolution descending with no duplicates.
type EncodingOption struct {
	// Resolution is the vertical pixel count (720, 1080, ...).
	Resolution int `json:"resolution"`
	// SizeMB is the estimated total size of video+audio in megabytes;
	// 0 means the host did not report sizes.
	SizeMB float64 `json:"filesize_mb"`
	// VideoFormatID and AudioFormatID are the extractor's opaque stream ids.
	// AudioFormatID is empty when the video stream already carries audio.
	VideoFormatID string `json:"video_format_id"`
	AudioFormatID string `json:"audio_format_id,omitempty"`
	// Ext is the container format of the video stream.
	Ext string `json:"ext"`
	// RemoteURL is set once a copy of this rendition has been uploaded to
	// object storage, so later requests can link instead of re-fetching.
	RemoteURL string `json:"remote_url,omitempty"`
}

// SelectionPath addresses one catalog entry.
type SelectionPath struct {
	Course  string
	Term    string
	Subject string
	Topic   string
}

// PendingSelection is the per-user session record written when a topic is
// chosen and read when a resolution button is pressed. Overwritten whole on
// every new topic selection, never merged.
type PendingSelection struct {
	URL     string
	Course  string
	Term    string
	Subject string
	Topic   string
}

// Path returns the catalog path of the selection.
func (s PendingSelection) Path() SelectionPath {
	return SelectionPath{Course: s.Course, Term: s.Term, Subject: s.Subject, Topic: s.Topic}
}

// FetchResult describes a materialized download. The caller owns Path and
// must remove it once the delivery attempt concludes.
type FetchResult struct {
	Path string
	Size int64
}
