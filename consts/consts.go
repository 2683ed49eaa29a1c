package consts

const (
	Name    = "multitoken"
	Version = "v0.1.0"
)

const (
	// DefaultLimit is the page size used when a listing query omits its limit.
	DefaultLimit uint32 = 10
	// MaxLimit caps the page size of every listing query.
	MaxLimit uint32 = 50
)

const (
	MaxIdentityLen    = 256
	MaxMetadataURILen = 2048
	MaxNameLen        = 256
	MaxDescriptionLen = 4096
	MaxMsgSize        = 4096
)
