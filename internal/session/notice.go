package session

type NoticeKind int

const (
	NoticeInvalidFileType NoticeKind = iota
	NoticeDecodeFailure
	NoticeEmptyComposite
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeInvalidFileType:
		return "invalid_file_type"
	case NoticeDecodeFailure:
		return "decode_failure"
	case NoticeEmptyComposite:
		return "empty_composite"
	default:
		return "unknown"
	}
}

// Notice is a transient, user-facing failure.
type Notice struct {
	Kind    NoticeKind `json:"-"`
	Name    string     `json:"name,omitempty"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}
