package httpapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humago"

	"github.com/clawdhub/clawdhub/internal/registry/objectstore"
	"github.com/clawdhub/clawdhub/internal/registry/publish"
	"github.com/clawdhub/clawdhub/internal/registry/ratelimit"
	"github.com/clawdhub/clawdhub/internal/registry/search"
	"github.com/clawdhub/clawdhub/internal/registry/store"
	"github.com/clawdhub/clawdhub/internal/registry/tagops"
)

const (
	skillTag   = "Skills"
	pathPrefix = "/api/v1"
)

// API holds every collaborator the HTTP facade dispatches to, and is itself
// the receiver for every huma.Register handler (teacher's pattern in
// internal/skill/store/httphandler.go, generalized from one store to the
// full set of domain packages a registry needs).
type API struct {
	Store       *store.Store
	Objects     objectstore.Store
	Publish     *publish.Pipeline
	Search      *search.Engine
	Tags        *tagops.Ops
	RateLimiter *ratelimit.Limiter
	Huma        huma.API
	Budgets     RateBudgets

	MaxFileReadBytes  int64
	MaxMultipartBytes int64
}

// RateBudgets mirrors config.Config's rate-limit knobs, reported back in the
// X-RateLimit-Limit response header (spec.md §4.5(e)).
type RateBudgets struct {
	ReadPerIPPerMinute     int
	ReadPerTokenPerMinute  int
	WritePerIPPerMinute    int
	WritePerTokenPerMinute int
}

// NewMux builds a *http.ServeMux wired to a huma API with this registry's
// routes and middleware attached.
func NewMux(a *API) *http.ServeMux {
	mux := http.NewServeMux()
	config := huma.DefaultConfig("ClawdHub Registry API", "1.0.0")
	config.Servers = nil
	api := humago.New(mux, config)
	a.Huma = api

	api.UseMiddleware(a.rateLimitMiddleware)
	api.UseMiddleware(a.authMiddleware)

	a.register(api)

	// Raw, non-huma routes: multipart publish and binary file/zip reads
	// don't fit huma's JSON-first typed body model, so they're mounted
	// directly on the mux, with their own bearer/rate-limit checks.
	mux.HandleFunc(http.MethodPost+" "+pathPrefix+"/skills", a.handlePublishRaw)
	mux.HandleFunc(http.MethodGet+" "+pathPrefix+"/skills/{slug}/file", a.handleGetFileRaw)
	mux.HandleFunc(http.MethodGet+" "+pathPrefix+"/download", a.handleDownloadRaw)

	return mux
}

func (a *API) register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "search-skills",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/search",
		Summary:     "Hybrid search over published skills",
		Tags:        []string{skillTag},
	}, a.HandleSearch)

	huma.Register(api, huma.Operation{
		OperationID: "list-skills",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/skills",
		Summary:     "List skills",
		Tags:        []string{skillTag},
	}, a.HandleListSkills)

	huma.Register(api, huma.Operation{
		OperationID: "get-skill",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/skills/{slug}",
		Summary:     "Get a skill and its latest version",
		Tags:        []string{skillTag},
	}, a.HandleGetSkill)

	huma.Register(api, huma.Operation{
		OperationID: "list-skill-versions",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/skills/{slug}/versions",
		Summary:     "List a skill's versions",
		Tags:        []string{skillTag},
	}, a.HandleListVersions)

	huma.Register(api, huma.Operation{
		OperationID: "get-skill-version",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/skills/{slug}/versions/{version}",
		Summary:     "Get a single version with its file manifest",
		Tags:        []string{skillTag},
	}, a.HandleGetVersion)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-skill",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/skill/resolve",
		Summary:     "Resolve a local fingerprint against the registry",
		Tags:        []string{skillTag},
	}, a.HandleResolve)

	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/whoami",
		Summary:     "Describe the authenticated principal",
		Tags:        []string{skillTag},
	}, a.HandleWhoami)

	huma.Register(api, huma.Operation{
		OperationID: "delete-skill",
		Method:      http.MethodDelete,
		Path:        pathPrefix + "/skills/{slug}",
		Summary:     "Soft-delete a skill",
		Tags:        []string{skillTag},
	}, a.HandleDeleteSkill)

	huma.Register(api, huma.Operation{
		OperationID: "undelete-skill",
		Method:      http.MethodPost,
		Path:        pathPrefix + "/skills/{slug}/undelete",
		Summary:     "Reverse a soft-delete",
		Tags:        []string{skillTag},
	}, a.HandleUndeleteSkill)

	huma.Register(api, huma.Operation{
		OperationID: "star-skill",
		Method:      http.MethodPost,
		Path:        pathPrefix + "/stars/{slug}",
		Summary:     "Star a skill",
		Tags:        []string{skillTag},
	}, a.HandleStar)

	huma.Register(api, huma.Operation{
		OperationID: "unstar-skill",
		Method:      http.MethodDelete,
		Path:        pathPrefix + "/stars/{slug}",
		Summary:     "Remove a star",
		Tags:        []string{skillTag},
	}, a.HandleUnstar)
}
