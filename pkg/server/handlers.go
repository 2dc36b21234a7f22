package server

import (
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nikogura/cvforge/pkg/llm"
	"github.com/nikogura/cvforge/pkg/pipeline"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/nikogura/cvforge/pkg/version"
	"github.com/pkg/errors"
)

type fileView struct {
	Format string `json:"format"`
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

type versionView struct {
	ProfileID       string     `json:"profile_id"`
	Version         string     `json:"version"`
	PreviousVersion string     `json:"previous_version,omitempty"`
	Partial         bool       `json:"partial"`
	Files           []fileView `json:"files"`
	Pruned          []string   `json:"pruned,omitempty"`
}

type versionSummaryView struct {
	Version  string            `json:"version"`
	Metadata *profile.Metadata `json:"metadata,omitempty"`
}

type profileView struct {
	ProfileID string               `json:"profile_id"`
	Latest    string               `json:"latest,omitempty"`
	Total     int                  `json:"total"`
	Versions  []versionSummaryView `json:"versions"`
}

func (s *Server) listProfiles(c *gin.Context) {
	detailed, _ := strconv.ParseBool(c.DefaultQuery("detailed", "false"))

	summaries, err := s.svc.List(detailed)
	if err != nil {
		fail(c, err)
		return
	}

	resp := make([]profileView, 0, len(summaries))
	for _, sum := range summaries {
		view := profileView{
			ProfileID: sum.ProfileID,
			Latest:    sum.Latest().String(),
			Total:     len(sum.Versions),
			Versions:  make([]versionSummaryView, 0, len(sum.Versions)),
		}
		for _, v := range sum.Versions {
			view.Versions = append(view.Versions, versionSummaryView{Version: v.ID.String(), Metadata: v.Metadata})
		}
		resp = append(resp, view)
	}

	c.JSON(http.StatusOK, gin.H{"profiles": resp})
}

func (s *Server) generate(c *gin.Context) {
	pid, err := profile.Sanitize(c.Param("profile"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.UploadLimit)
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "multipart form expected")
		return
	}

	req := pipeline.GenerateRequest{
		ProfileID:      pid,
		JobDescription: formValue(form.Value, "job_description"),
		Template:       formValue(form.Value, "template"),
		Theme:          formValue(form.Value, "theme"),
		Formats:        form.Value["formats"],
		Language:       formValue(form.Value, "language"),
		StyleReference: formValue(form.Value, "style"),
		RemoteOnly:     true,
	}

	req.AutoCleanup, err = optionalBool(formValue(form.Value, "auto_cleanup"))
	if err == nil {
		err = validateOptions(req.Formats, req.Language)
	}
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	var cleanup func()
	req.SourceFiles, cleanup, err = s.saveUploads(c, form.File["files"])
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	defer cleanup()

	if len(req.SourceFiles) == 0 {
		writeError(c, http.StatusBadRequest, "validation_error", "at least one file is required")
		return
	}

	result, err := s.svc.Generate(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	s.writeResult(c, result)
}

func (s *Server) update(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.UploadLimit)
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "multipart form expected")
		return
	}

	rel := filepath.Clean(formValue(form.Value, "version_path"))
	if rel == "." || !filepath.IsLocal(rel) {
		writeError(c, http.StatusBadRequest, "validation_error", "version_path must be relative to the profile store")
		return
	}

	req := pipeline.UpdateRequest{
		ExistingVersionPath: filepath.Join(s.svc.StoreRoot(), rel),
		JobDescription:      formValue(form.Value, "job_description"),
		RemoteOnly:          true,
	}

	req.AutoCleanup, err = optionalBool(formValue(form.Value, "auto_cleanup"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	var cleanup func()
	req.NewSourceFiles, cleanup, err = s.saveUploads(c, form.File["files"])
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	defer cleanup()

	if len(req.NewSourceFiles) == 0 && req.JobDescription == "" {
		writeError(c, http.StatusBadRequest, "validation_error", "files or job_description is required")
		return
	}

	result, err := s.svc.Update(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	s.writeResult(c, result)
}

func (s *Server) cleanup(c *gin.Context) {
	pid, err := profile.Sanitize(c.Param("profile"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	keep := -1
	if v := c.Query("keep"); v != "" {
		keep, err = strconv.Atoi(v)
		if err != nil || keep < 0 {
			writeError(c, http.StatusBadRequest, "validation_error", "keep must be a non-negative integer")
			return
		}
	}

	deleted, err := s.svc.Cleanup(pid, keep)
	if err != nil {
		fail(c, err)
		return
	}

	ids := make([]string, 0, len(deleted))
	for _, id := range deleted {
		ids = append(ids, id.String())
	}

	c.JSON(http.StatusOK, gin.H{"profile_id": pid, "deleted": ids})
}

func (s *Server) download(c *gin.Context) {
	pid := c.Param("profile")
	file := c.Param("file")

	if sanitized, err := profile.Sanitize(pid); err != nil || sanitized != pid {
		writeError(c, http.StatusBadRequest, "validation_error", "invalid profile id")
		return
	}

	id, err := version.Parse(c.Param("version"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if file == "" || filepath.Base(file) != file || strings.HasPrefix(file, ".") {
		writeError(c, http.StatusBadRequest, "validation_error", "invalid file name")
		return
	}

	path := filepath.Join(s.svc.StoreRoot(), pid, id.String(), file)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		writeError(c, http.StatusNotFound, "not_found", "file not found")
		return
	}

	c.FileAttachment(path, file)
}

func (s *Server) writeResult(c *gin.Context, result profile.Result) {
	view := versionView{
		ProfileID:       result.ProfileID,
		Version:         result.Version.String(),
		PreviousVersion: result.Metadata.PreviousVersion.String(),
		Partial:         result.Partial(),
		Files:           make([]fileView, 0, len(result.Formats)),
	}

	for _, f := range result.Formats {
		fv := fileView{Format: f.Format.String()}
		if f.Err != nil {
			fv.Error = f.Err.Error()
		} else {
			fv.Name = filepath.Base(f.Path)
			fv.URL = "/api/profiles/" + url.PathEscape(result.ProfileID) + "/versions/" + result.Version.String() + "/files/" + url.PathEscape(fv.Name)
		}
		view.Files = append(view.Files, fv)
	}

	for _, id := range result.Pruned {
		view.Pruned = append(view.Pruned, id.String())
	}

	status := http.StatusCreated
	if view.Partial {
		status = http.StatusMultiStatus
	}
	c.JSON(status, view)
}

// saveUploads stores each upload under its original base name in its own temp
// directory so provenance records the name the user chose.
func (s *Server) saveUploads(c *gin.Context, files []*multipart.FileHeader) (paths []string, cleanup func(), err error) {
	cleanup = func() {}
	if len(files) == 0 {
		return paths, cleanup, err
	}

	var tmp string
	tmp, err = os.MkdirTemp("", "cvforge-upload-")
	if err != nil {
		err = errors.Wrap(err, "failed to create upload directory")
		return paths, cleanup, err
	}
	cleanup = func() {
		removeErr := os.RemoveAll(tmp)
		if removeErr != nil {
			s.logger.Warn("failed to remove upload directory", "dir", tmp, "error", removeErr)
		}
	}

	for i, fh := range files {
		name := filepath.Base(filepath.Clean("/" + fh.Filename))
		if name == "/" || name == "." || name == ".." {
			err = errors.Errorf("invalid upload name %q", fh.Filename)
			break
		}

		dir := filepath.Join(tmp, strconv.Itoa(i))
		err = os.Mkdir(dir, 0o700)
		if err != nil {
			err = errors.Wrap(err, "failed to create upload directory")
			break
		}

		path := filepath.Join(dir, name)
		err = c.SaveUploadedFile(fh, path)
		if err != nil {
			err = errors.Wrapf(err, "failed to store upload %s", name)
			break
		}
		paths = append(paths, path)
	}

	if err != nil {
		cleanup()
		cleanup = func() {}
		paths = nil
	}

	return paths, cleanup, err
}

func formValue(values map[string][]string, key string) (v string) {
	if vs := values[key]; len(vs) > 0 {
		v = strings.TrimSpace(vs[0])
	}
	return v
}

func optionalBool(v string) (b *bool, err error) {
	if v == "" {
		return b, err
	}

	var parsed bool
	parsed, err = strconv.ParseBool(v)
	if err != nil {
		err = errors.Errorf("invalid boolean %q", v)
		return b, err
	}

	b = &parsed
	return b, err
}

func validateOptions(formats []string, language string) (err error) {
	if len(formats) > 0 {
		_, err = render.ParseFormats(formats)
		if err != nil {
			return err
		}
	}

	if language != "" {
		_, err = llm.ParseLanguage(language)
	}
	return err
}
