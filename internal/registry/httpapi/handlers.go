package httpapi

import (
	"context"
	"fmt"

	"github.com/clawdhub/clawdhub/internal/registry/search"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/store"
)

func (a *API) HandleSearch(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	hits, err := a.Search.Search(ctx, search.Query{Text: req.Q, TopK: limit})
	if err != nil {
		return nil, toHumaError(err)
	}
	items := make([]SearchResultItem, 0, len(hits))
	for _, h := range hits {
		if req.HighlightedOnly {
			highlighted := false
			for _, b := range a.Store.GetBadges(h.Skill.ID) {
				highlighted = highlighted || b.Kind == spec.BadgeHighlighted
			}
			if !highlighted {
				continue
			}
		}
		items = append(items, SearchResultItem{
			Score:       h.Score,
			Slug:        h.Skill.Slug,
			DisplayName: h.Skill.DisplayName,
			Summary:     h.Skill.Summary,
			Version:     h.Version.Version,
			UpdatedAt:   h.Skill.UpdatedAt,
		})
	}
	return &SearchResponse{Body: &SearchResponseBody{Results: items}}, nil
}

func (a *API) HandleListSkills(ctx context.Context, req *ListSkillsRequest) (*ListSkillsResponse, error) {
	sortField := store.SortUpdated
	switch req.Sort {
	case "downloads", "installsCurrent", "installsAllTime":
		sortField = store.SortTrending
	case "stars":
		sortField = store.SortStars
	case "trending":
		sortField = store.SortTrending
	case "updated", "":
		sortField = store.SortUpdated
	}
	cursor := req.Cursor
	if sortField != store.SortUpdated {
		// spec.md §6.1: only sort=updated honours the cursor.
		cursor = ""
	}
	page, err := a.Store.ListSkills(store.ListSkillsOptions{Sort: sortField, Cursor: cursor, PageSize: req.Limit})
	if err != nil {
		return nil, toHumaError(err)
	}
	items := make([]SkillListItem, 0, len(page.Items))
	for _, sk := range page.Items {
		items = append(items, SkillListItem{
			Slug: sk.Slug, DisplayName: sk.DisplayName, Summary: sk.Summary,
			Stars: sk.Stats.Stars, Downloads: sk.Stats.Downloads, UpdatedAt: sk.UpdatedAt,
		})
	}
	next := page.NextCursor
	if sortField != store.SortUpdated {
		next = ""
	}
	return &ListSkillsResponse{Body: &ListSkillsResponseBody{Items: items, NextCursor: next}}, nil
}

func (a *API) HandleGetSkill(ctx context.Context, req *GetSkillRequest) (*GetSkillResponse, error) {
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok || sk.SoftDeletedAt != nil {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	body := &GetSkillResponseBody{Skill: skillView(sk)}
	if sk.LatestVersionID != "" {
		if v, ok := a.Store.GetVersion(sk.LatestVersionID); ok {
			vv := versionView(v)
			body.LatestVersion = &vv
		}
	}
	if owner, ok := a.Store.GetUser(sk.OwnerUserID); ok {
		body.Owner = OwnerView{Handle: owner.Handle, DisplayName: owner.DisplayName, Image: owner.Image}
	}
	return &GetSkillResponse{Body: body}, nil
}

func (a *API) HandleListVersions(ctx context.Context, req *ListVersionsRequest) (*ListVersionsResponse, error) {
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	all := a.Store.ListVersions(sk.ID)
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 25
	}
	if limit > len(all) {
		limit = len(all)
	}
	items := make([]VersionView, 0, limit)
	for _, v := range all[:limit] {
		items = append(items, versionView(v))
	}
	return &ListVersionsResponse{Body: &ListVersionsResponseBody{Items: items}}, nil
}

func (a *API) HandleGetVersion(ctx context.Context, req *GetVersionRequest) (*GetVersionResponse, error) {
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	for _, v := range a.Store.ListVersions(sk.ID) {
		if v.Version == req.Version {
			vv := versionView(v)
			return &GetVersionResponse{Body: &vv}, nil
		}
	}
	return nil, toHumaError(fmt.Errorf("%w: version", spec.ErrNotFound))
}

func (a *API) HandleResolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok || sk.SoftDeletedAt != nil {
		return &ResolveResponse{Body: &ResolveResponseBody{Match: false}}, nil
	}
	match, found := a.Store.FindSkillFingerprint(sk.ID, req.Hash)
	if !found {
		return &ResolveResponse{Body: &ResolveResponseBody{Match: false}}, nil
	}
	v, ok := a.Store.GetVersion(match.VersionID)
	if !ok {
		return &ResolveResponse{Body: &ResolveResponseBody{Match: false}}, nil
	}
	return &ResolveResponse{Body: &ResolveResponseBody{Match: true, LatestVersion: v.Version}}, nil
}

func (a *API) HandleWhoami(ctx context.Context, _ *struct{}) (*WhoamiResponse, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	u, ok := a.Store.GetUser(uid)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: user", spec.ErrNotFound))
	}
	body := &WhoamiResponseBody{}
	body.User.Handle = u.Handle
	body.User.DisplayName = u.DisplayName
	body.User.Image = u.Image
	return &WhoamiResponse{Body: body}, nil
}

func (a *API) HandleDeleteSkill(ctx context.Context, req *DeleteSkillRequest) (*DeleteSkillResponse, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	if err := a.Tags.SoftDelete(sk.ID, uid); err != nil {
		return nil, toHumaError(err)
	}
	return &DeleteSkillResponse{}, nil
}

func (a *API) HandleUndeleteSkill(ctx context.Context, req *UndeleteSkillRequest) (*UndeleteSkillResponse, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	if err := a.Tags.Undelete(sk.ID, uid); err != nil {
		return nil, toHumaError(err)
	}
	return &UndeleteSkillResponse{}, nil
}

func (a *API) HandleStar(ctx context.Context, req *StarRequest) (*StarResponse, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	if err := a.Store.PutStar(sk.ID, uid, nowUTC()); err != nil {
		return nil, toHumaError(err)
	}
	return &StarResponse{}, nil
}

func (a *API) HandleUnstar(ctx context.Context, req *UnstarRequest) (*UnstarResponse, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	sk, ok := a.Store.GetSkillBySlug(req.Slug)
	if !ok {
		return nil, toHumaError(fmt.Errorf("%w: skill", spec.ErrNotFound))
	}
	if err := a.Store.DeleteStar(sk.ID, uid); err != nil {
		return nil, toHumaError(err)
	}
	return &UnstarResponse{}, nil
}

func skillView(sk spec.Skill) SkillView {
	return SkillView{
		ID: sk.ID, Slug: sk.Slug, DisplayName: sk.DisplayName, Summary: sk.Summary,
		Tags: sk.Tags, ModerationStatus: string(sk.ModerationStatus),
		Stats: SkillStatsView{
			Downloads: sk.Stats.Downloads, Stars: sk.Stats.Stars,
			Versions: sk.Stats.Versions, Comments: sk.Stats.Comments,
		},
		CreatedAt: sk.CreatedAt, UpdatedAt: sk.UpdatedAt,
	}
}

func versionView(v spec.SkillVersion) VersionView {
	files := make([]VersionFileView, 0, len(v.Files))
	for _, f := range v.Files {
		files = append(files, VersionFileView{Path: f.Path, Size: f.Size, SHA256: f.SHA256, ContentType: f.ContentType})
	}
	return VersionView{
		Version: v.Version, Changelog: v.Changelog, Files: files,
		Fingerprint: v.Fingerprint, CreatedAt: v.CreatedAt,
	}
}
