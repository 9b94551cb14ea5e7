package httpapi

import (
	"archive/zip"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/clawdhub/clawdhub/internal/registry/publish"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

// handlePublishRaw implements POST /api/v1/skills (spec.md §6.1), which
// accepts either application/json (files already uploaded to the object
// store out of band) or multipart/form-data (a "payload" field plus inline
// "files" parts) — a shape huma's typed-body model doesn't fit cleanly, so
// this route is mounted directly on the mux instead of through huma.Register.
func (a *API) handlePublishRaw(w http.ResponseWriter, r *http.Request) {
	if !a.applyRateLimit(w, r, "write") {
		return
	}
	uid, ok := a.requireUserRaw(w, r)
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	var result publish.Result
	var err error

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		result, err = a.publishMultipart(r, uid)
	case strings.HasPrefix(contentType, "application/json"):
		result, err = a.publishJSON(r, uid)
	default:
		writeRawError(w, 415, spec.ErrUnsupportedMediaType)
		return
	}
	if err != nil {
		writeRawError(w, spec.ErrHTTPStatus(err), err)
		return
	}
	writeRawJSON(w, 200, PublishResponseBody{
		Slug: result.Skill.Slug, Version: result.Version.Version, AlreadyExists: result.AlreadyExists,
	})
}

func (a *API) publishJSON(r *http.Request, uid string) (publish.Result, error) {
	var body PublishRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return publish.Result{}, spec.ErrValidation
	}
	files := make([]publish.StoredFile, 0, len(body.Files))
	for _, f := range body.Files {
		files = append(files, publish.StoredFile{Path: f.Path, StorageID: f.StorageID, SHA256: f.SHA256, Size: f.Size, ContentType: f.ContentType})
	}
	return a.Publish.PublishStored(r.Context(), publish.StoredRequest{
		Slug: body.Slug, DisplayName: body.DisplayName, Summary: body.Summary,
		OwnerUserID: uid, RequestedVersion: body.Version, UserChangelog: body.Changelog,
		ForkOfSlug: body.ForkOfSlug, ForkOfVersion: body.ForkOfVersion, ExtraTags: body.Tags,
		Files: files,
	})
}

func (a *API) publishMultipart(r *http.Request, uid string) (publish.Result, error) {
	if err := r.ParseMultipartForm(a.MaxMultipartBytes); err != nil {
		return publish.Result{}, spec.ErrPayloadTooLarge
	}

	var body PublishRequestBody
	if payload := r.FormValue("payload"); payload != "" {
		if err := json.Unmarshal([]byte(payload), &body); err != nil {
			return publish.Result{}, spec.ErrValidation
		}
	}

	var files []publish.InputFile
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return publish.Result{}, spec.ErrValidation
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return publish.Result{}, spec.ErrValidation
			}
			files = append(files, publish.InputFile{Path: fh.Filename, Data: data})
		}
	}

	return a.Publish.Publish(r.Context(), publish.Request{
		Slug: body.Slug, DisplayName: body.DisplayName, Summary: body.Summary,
		OwnerUserID: uid, RequestedVersion: body.Version, UserChangelog: body.Changelog,
		ForkOfSlug: body.ForkOfSlug, ForkOfVersion: body.ForkOfVersion, ExtraTags: body.Tags,
		Files: files,
	})
}

// handleGetFileRaw implements GET /api/v1/skills/{slug}/file.
func (a *API) handleGetFileRaw(w http.ResponseWriter, r *http.Request) {
	if !a.applyRateLimit(w, r, "read") {
		return
	}
	slug := r.PathValue("slug")
	path := r.URL.Query().Get("path")
	version := r.URL.Query().Get("version")
	tag := r.URL.Query().Get("tag")

	sk, ok := a.Store.GetSkillBySlug(slug)
	if !ok || sk.SoftDeletedAt != nil {
		writeRawError(w, 404, spec.ErrNotFound)
		return
	}

	versionID := sk.LatestVersionID
	if tag != "" {
		if vID, ok := sk.Tags[tag]; ok {
			versionID = vID
		}
	}
	var target *spec.SkillVersion
	if version != "" {
		for _, v := range a.Store.ListVersions(sk.ID) {
			if v.Version == version {
				vv := v
				target = &vv
				break
			}
		}
	} else if versionID != "" {
		if v, ok := a.Store.GetVersion(versionID); ok {
			target = &v
		}
	}
	if target == nil {
		writeRawError(w, 404, spec.ErrNotFound)
		return
	}

	var file *spec.SkillFile
	for _, f := range target.Files {
		if f.Path == path {
			ff := f
			file = &ff
			break
		}
	}
	if file == nil {
		writeRawError(w, 404, spec.ErrNotFound)
		return
	}
	if file.Size > a.MaxFileReadBytes {
		writeRawError(w, 413, spec.ErrPayloadTooLarge)
		return
	}

	data, err := a.Objects.Get(file.StorageID)
	if err != nil {
		writeRawError(w, 500, spec.ErrInternal)
		return
	}

	isLatest := versionID == sk.LatestVersionID
	if !isLatest {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}
	w.Header().Set("ETag", `"`+file.SHA256+`"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(200)
	_, _ = w.Write(data)
}

// handleDownloadRaw implements GET /api/v1/download: a zip of every file in
// one version, original relative paths preserved, no wrapping directory
// (spec.md §6.2).
func (a *API) handleDownloadRaw(w http.ResponseWriter, r *http.Request) {
	if !a.applyRateLimit(w, r, "read") {
		return
	}
	slug := r.URL.Query().Get("slug")
	version := r.URL.Query().Get("version")

	sk, ok := a.Store.GetSkillBySlug(slug)
	if !ok || sk.SoftDeletedAt != nil {
		writeRawError(w, 404, spec.ErrNotFound)
		return
	}
	var target *spec.SkillVersion
	for _, v := range a.Store.ListVersions(sk.ID) {
		if v.Version == version {
			vv := v
			target = &vv
			break
		}
	}
	if target == nil {
		writeRawError(w, 404, spec.ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sk.Slug+"-"+target.Version+`.zip"`)
	w.WriteHeader(200)

	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, f := range target.Files {
		data, err := a.Objects.Get(f.StorageID)
		if err != nil {
			continue
		}
		entry, err := zw.Create(f.Path)
		if err != nil {
			continue
		}
		_, _ = entry.Write(data)
	}
}
