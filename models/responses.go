package models

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// NewVersionResponse reports info as a [VersionResponse].
func NewVersionResponse(info AppBuildInfo) VersionResponse {
	return VersionResponse{
		Version: info.BuildVersion(),
		Date:    info.BuildDate(),
		Commit:  info.BuildCommit(),
	}
}
