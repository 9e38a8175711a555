package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/vidsub/internal/logger"
	"github.com/forPelevin/vidsub/internal/pipeline"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/types"
	"github.com/forPelevin/vidsub/internal/usecase"
)

type videoView struct {
	Name   string `json:"name"`
	MIME   string `json:"mime"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type SessionView struct {
	ID             string     `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Video          *videoView `json:"video,omitempty"`
	HasAudio       bool       `json:"has_audio"`
	AudioSeconds   float64    `json:"audio_seconds,omitempty"`
	Transcribed    bool       `json:"transcribed"`
	Segments       int        `json:"segments"`
	Transcript     *string    `json:"transcript,omitempty"`
	Summary        *string    `json:"summary,omitempty"`
	HasSubtitles   bool       `json:"has_subtitles"`
	HasTranslation bool       `json:"has_translation"`
	View           string     `json:"view"`
	DisplayedText  string     `json:"displayed_text"`
	HasCredential  bool       `json:"has_credential"`
	Busy           bool       `json:"busy"`
}

func (s *Server) view(sess *session.Session) SessionView {
	v := SessionView{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      sess.UpdatedAt,
		HasAudio:       sess.Audio != nil,
		Transcribed:    sess.Transcribed(),
		Segments:       len(sess.Segments),
		Transcript:     sess.TranscriptText,
		Summary:        sess.Summary,
		HasSubtitles:   sess.Subtitles != nil,
		HasTranslation: sess.Translated != nil,
		View:           string(sess.View),
		DisplayedText:  sess.DisplayedText(),
		Busy:           s.guard.Busy(sess.ID),
	}
	if sess.Video != nil {
		v.Video = &videoView{
			Name:   sess.Video.BaseName,
			MIME:   sess.Video.MIME,
			Size:   sess.Video.Size,
			SHA256: sess.Video.SHA256,
		}
	}
	if sess.Audio != nil {
		v.AudioSeconds = sess.Audio.Duration.Seconds()
	}
	_, v.HasCredential = s.keyring.Get(sess.ID)
	return v
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.store.Create(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info("session created", "session", sess.ID)
	c.JSON(http.StatusCreated, s.view(sess))
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(sess))
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	release, err := s.guard.TryAcquire(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer release()

	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	s.keyring.Delete(id)
	c.Status(http.StatusNoContent)
}

type credentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

func (s *Server) setCredential(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.store.Get(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.APIKey) == "" {
		s.respondError(c, fmt.Errorf("%w: api_key is required", errBadRequest))
		return
	}
	s.keyring.Set(id, strings.TrimSpace(req.APIKey))
	c.Status(http.StatusNoContent)
}

// stepFunc runs one workflow action against a loaded session.
type stepFunc func(ctx context.Context, uc usecase.Usecase, sess *session.Session) error

// runStep serializes actions per session, runs fn, persists the session and
// replies with its view. The session is saved even on failure since steps only
// assign state on success.
func (s *Server) runStep(c *gin.Context, step string, deps func(id string) (usecase.Deps, error), fn stepFunc) {
	id := c.Param("id")
	release, err := s.guard.TryAcquire(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer release()

	ctx := c.Request.Context()
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	d, err := deps(id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	log := s.log.With("session", id, "step", step)
	uc := usecase.New(d, pipeline.UsecaseOptions(s.settings, logger.Logf(log)))

	s.events.Publish(Event{Session: id, Step: step, State: EventStarted})
	stepErr := fn(ctx, uc, sess)
	// a client hanging up must not discard a finished step
	if err := s.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		s.respondError(c, err)
		return
	}
	if stepErr != nil {
		s.events.Publish(Event{Session: id, Step: step, State: EventFailed, Error: stepErr.Error()})
		log.Warn("step failed", "error", stepErr)
		s.respondError(c, stepErr)
		return
	}
	s.events.Publish(Event{Session: id, Step: step, State: EventFinished})
	c.JSON(http.StatusOK, s.view(sess))
}

func noDeps(string) (usecase.Deps, error) { return usecase.Deps{}, nil }

func (s *Server) extractorDeps(string) (usecase.Deps, error) {
	return usecase.Deps{Extractor: s.extractor}, nil
}

// remoteDeps resolves the session credential, falling back to the
// environment key, and builds only the adapters in need.
func (s *Server) remoteDeps(need pipeline.Need) func(id string) (usecase.Deps, error) {
	return func(id string) (usecase.Deps, error) {
		keys := s.keys
		if k, ok := s.keyring.Get(id); ok {
			keys.OpenAI = k
		}
		return s.deps(keys, need)
	}
}

func (s *Server) uploadVideo(c *gin.Context) {
	limit := s.settings.MaxUploadBytes()
	// multipart framing adds a little on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	s.runStep(c, "upload", noDeps, func(ctx context.Context, uc usecase.Usecase, sess *session.Session) error {
		fh, err := c.FormFile("file")
		if err != nil {
			var bytesErr *http.MaxBytesError
			if errors.As(err, &bytesErr) {
				return err
			}
			return fmt.Errorf("%w: multipart field \"file\" is required: %v", errBadRequest, err)
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		return uc.Ingest(ctx, sess, fh.Filename, f)
	})
}

func (s *Server) extractAudio(c *gin.Context) {
	s.runStep(c, usecase.StepExtract, s.extractorDeps, func(ctx context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.ExtractAudio(ctx, sess)
	})
}

func (s *Server) transcribe(c *gin.Context) {
	s.runStep(c, usecase.StepTranscribe, s.remoteDeps(pipeline.NeedAll), func(ctx context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.TranscribeAndSummarize(ctx, sess)
	})
}

func (s *Server) summarize(c *gin.Context) {
	s.runStep(c, usecase.StepSummary, s.remoteDeps(pipeline.Need{Generator: true}), func(ctx context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.Summarize(ctx, sess)
	})
}

type transcriptRequest struct {
	Text *string `json:"text"`
}

func (s *Server) editTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		s.respondError(c, fmt.Errorf("%w: text is required", errBadRequest))
		return
	}
	s.runStep(c, "edit", noDeps, func(_ context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.EditTranscript(sess, *req.Text)
	})
}

func (s *Server) generateSubtitles(c *gin.Context) {
	s.runStep(c, "subtitles", noDeps, func(_ context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.GenerateSubtitles(sess)
	})
}

func (s *Server) translate(c *gin.Context) {
	s.runStep(c, usecase.StepTranslate, s.remoteDeps(pipeline.Need{Generator: true}), func(ctx context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.Translate(ctx, sess)
	})
}

type viewRequest struct {
	View string `json:"view" binding:"required"`
}

func (s *Server) selectView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: view is required", errBadRequest))
		return
	}
	v, err := session.ParseView(req.View)
	if err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.runStep(c, "view", noDeps, func(_ context.Context, uc usecase.Usecase, sess *session.Session) error {
		return uc.SelectView(sess, v)
	})
}

var artifacts = map[string]func(*session.Session) (types.Artifact, error){
	"audio":      usecase.AudioArtifact,
	"subtitles":  usecase.SubtitleArtifact,
	"translated": usecase.TranslatedArtifact,
	"summary":    usecase.SummaryArtifact,
	"ass":        usecase.ASSArtifact,
	"docx":       usecase.DocxArtifact,
}

func (s *Server) download(c *gin.Context) {
	fn, ok := artifacts[c.Param("kind")]
	if !ok {
		s.respondError(c, fmt.Errorf("%w: unknown file kind %q", errBadRequest, c.Param("kind")))
		return
	}
	sess, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	art, err := fn(sess)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Name}))
	c.Data(http.StatusOK, art.MIME, art.Body)
}
