// Package httpapi is the HTTP Facade of spec.md §4.5/§6.1: huma/v2 request
// and response shapes plus the handlers that wire them to the domain
// packages (store, publish, search, tagops, ratelimit).
//
// Grounded on the teacher's internal/skill/store/httphandler.go (huma.API +
// huma.Register wiring, one operation per route) and on
// other_examples/217ef4de_timflannagan-agentregistry's RegisterSkillsEndpoints
// (query-bound input structs, closure handlers, huma.Error* helpers) for the
// parts the teacher's own desktop-bridge surface never needed: query-string
// pagination, substring search input, and per-route doc/example tags.
package httpapi

import "time"

type SearchRequest struct {
	Q               string `query:"q" doc:"Search query text"`
	Limit           int    `query:"limit" doc:"Max results" default:"20" minimum:"1" maximum:"50"`
	HighlightedOnly bool   `query:"highlightedOnly" doc:"Restrict to highlighted skills"`
}

type SearchResultItem struct {
	Score       float64   `json:"score"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Summary     string    `json:"summary,omitempty"`
	Version     string    `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SearchResponseBody struct {
	Results []SearchResultItem `json:"results"`
}

type SearchResponse struct {
	Body *SearchResponseBody
}

type ListSkillsRequest struct {
	Limit  int    `query:"limit" doc:"Page size" default:"25" minimum:"1" maximum:"200"`
	Cursor string `query:"cursor" doc:"Opaque pagination cursor"`
	Sort   string `query:"sort" doc:"updated|downloads|stars|installsCurrent|installsAllTime|trending" default:"updated"`
}

type SkillListItem struct {
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Summary     string    `json:"summary,omitempty"`
	Stars       int64     `json:"stars"`
	Downloads   int64     `json:"downloads"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListSkillsResponseBody struct {
	Items      []SkillListItem `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

type ListSkillsResponse struct {
	Body *ListSkillsResponseBody
}

type GetSkillRequest struct {
	Slug string `path:"slug" required:"true"`
}

type OwnerView struct {
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Image       string `json:"image,omitempty"`
}

type GetSkillResponseBody struct {
	Skill         SkillView      `json:"skill"`
	LatestVersion *VersionView   `json:"latestVersion,omitempty"`
	Owner         OwnerView      `json:"owner"`
}

type SkillView struct {
	ID               string            `json:"id"`
	Slug             string            `json:"slug"`
	DisplayName      string            `json:"displayName"`
	Summary          string            `json:"summary,omitempty"`
	Tags             map[string]string `json:"tags"`
	ModerationStatus string            `json:"moderationStatus"`
	Stats            SkillStatsView    `json:"stats"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type SkillStatsView struct {
	Downloads int64 `json:"downloads"`
	Stars     int64 `json:"stars"`
	Versions  int64 `json:"versions"`
	Comments  int64 `json:"comments"`
}

type VersionFileView struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
	ContentType string `json:"contentType,omitempty"`
}

type VersionView struct {
	Version     string            `json:"version"`
	Changelog   string            `json:"changelog,omitempty"`
	Files       []VersionFileView `json:"files"`
	Fingerprint string            `json:"fingerprint"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type GetSkillResponse struct {
	Body *GetSkillResponseBody
}

type ListVersionsRequest struct {
	Slug   string `path:"slug" required:"true"`
	Limit  int    `query:"limit" default:"25" minimum:"1" maximum:"200"`
	Cursor string `query:"cursor"`
}

type ListVersionsResponseBody struct {
	Items      []VersionView `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type ListVersionsResponse struct {
	Body *ListVersionsResponseBody
}

type GetVersionRequest struct {
	Slug    string `path:"slug" required:"true"`
	Version string `path:"version" required:"true"`
}

type GetVersionResponse struct {
	Body *VersionView
}

type GetFileRequest struct {
	Slug    string `path:"slug" required:"true"`
	Path    string `query:"path" required:"true"`
	Version string `query:"version"`
	Tag     string `query:"tag"`
}

type ResolveRequest struct {
	Slug string `query:"slug" required:"true"`
	Hash string `query:"hash" required:"true" minLength:"64" maxLength:"64"`
}

type ResolveResponseBody struct {
	Match         bool   `json:"match"`
	LatestVersion string `json:"latestVersion,omitempty"`
}

type ResolveResponse struct {
	Body *ResolveResponseBody
}

type DownloadRequest struct {
	Slug    string `query:"slug" required:"true"`
	Version string `query:"version" required:"true"`
}

type WhoamiResponseBody struct {
	User struct {
		Handle      string `json:"handle,omitempty"`
		DisplayName string `json:"displayName,omitempty"`
		Image       string `json:"image,omitempty"`
	} `json:"user"`
}

type WhoamiResponse struct {
	Body *WhoamiResponseBody
}

type PublishFileInput struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	StorageID   string `json:"storageId"`
	SHA256      string `json:"sha256"`
	ContentType string `json:"contentType,omitempty"`
}

type PublishRequestBody struct {
	Slug          string             `json:"slug" required:"true"`
	DisplayName   string             `json:"displayName,omitempty"`
	Summary       string             `json:"summary,omitempty"`
	Version       string             `json:"version,omitempty"`
	Changelog     string             `json:"changelog,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	ForkOfSlug    string             `json:"forkOfSlug,omitempty"`
	ForkOfVersion string             `json:"forkOfVersion,omitempty"`
	Files         []PublishFileInput `json:"files,omitempty"`
}

type PublishRequest struct {
	Body *PublishRequestBody
}

type PublishResponseBody struct {
	Slug          string `json:"slug"`
	Version       string `json:"version"`
	AlreadyExists bool   `json:"alreadyExists"`
}

type PublishResponse struct {
	Body *PublishResponseBody
}

type DeleteSkillRequest struct {
	Slug string `path:"slug" required:"true"`
}

type DeleteSkillResponse struct{}

type UndeleteSkillRequest struct {
	Slug string `path:"slug" required:"true"`
}

type UndeleteSkillResponse struct{}

type StarRequest struct {
	Slug string `path:"slug" required:"true"`
}

type StarResponse struct{}

type UnstarRequest struct {
	Slug string `path:"slug" required:"true"`
}

type UnstarResponse struct{}
