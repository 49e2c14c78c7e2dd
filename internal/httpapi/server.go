// Package httpapi exposes the quiz progress manager over HTTP and a
// websocket snapshot stream.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-quiz/internal/assistant"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quizdata"
	"github.com/p-n-ai/pai-quiz/internal/report"
)

const maxBodyBytes = 1 << 20

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Asker answers free-form study questions.
type Asker interface {
	Ask(ctx context.Context, question string) (assistant.Reply, error)
}

// Config holds dependencies for the HTTP surface.
type Config struct {
	Manager   *progress.Manager
	Health    HealthChecker // optional; readiness is unconditional without it
	Assistant Asker         // optional; POST /chat answers 503 without it
}

// Server serves the quiz API.
type Server struct {
	manager   *progress.Manager
	health    HealthChecker
	assistant Asker
}

// New creates a new API server.
func New(cfg Config) *Server {
	return &Server{
		manager:   cfg.Manager,
		health:    cfg.Health,
		assistant: cfg.Assistant,
	}
}

// Handler returns the HTTP router.
func (s *Server) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /quiz/load", s.handleLoad)
	mux.HandleFunc("GET /quiz", s.handleQuiz)
	mux.HandleFunc("PUT /topic", s.handleSetTopic)
	mux.HandleFunc("GET /topics", s.handleTopics)
	mux.HandleFunc("POST /questions/{id}/answer", s.handleAnswer)
	mux.HandleFunc("POST /questions/{id}/bookmark", s.handleBookmark)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /progress", s.handleProgress)
	mux.HandleFunc("GET /progress/export.xlsx", s.handleExport)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// state is the wire form of a snapshot.
type state struct {
	progress.Snapshot
	CompletedQuestions []int          `json:"completedQuestions"`
	Views              progress.Views `json:"views"`
}

func newState(snap progress.Snapshot) state {
	completed := snap.Completed.Sorted()
	if completed == nil {
		completed = []int{}
	}
	if snap.Items == nil {
		snap.Items = []quizdata.QuizItem{}
	}
	return state{
		Snapshot:           snap,
		CompletedQuestions: completed,
		Views:              snap.Views(),
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz fails only on the progress store. The assistant is optional,
// so its health is reported without affecting the status code.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}

	body := map[string]string{"status": "ready"}
	if checker, ok := s.assistant.(HealthChecker); ok {
		body["assistant"] = "ok"
		if err := checker.HealthCheck(r.Context()); err != nil {
			slog.Warn("assistant health check failed", "error", err)
			body["assistant"] = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Load(r.Context()); err != nil {
		// The failure is also reported through loadError in the body.
		writeJSON(w, http.StatusBadGateway, newState(s.manager.Snapshot()))
		return
	}
	writeJSON(w, http.StatusOK, newState(s.manager.Snapshot()))
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newState(s.manager.Snapshot()))
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleSetTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.manager.SetSelectedTopic(r.Context(), req.Topic)
	writeJSON(w, http.StatusOK, newState(s.manager.Snapshot()))
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics := []string{progress.TopicAll, progress.TopicBookmarked}
	topics = append(topics, quizdata.Topics(s.manager.Snapshot().Items)...)
	writeJSON(w, http.StatusOK, topics)
}

type answerRequest struct {
	Option string `json:"option"`
}

type answerResponse struct {
	Accepted bool           `json:"accepted"`
	Views    progress.Views `json:"views"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.questionID(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	accepted := s.manager.Answer(r.Context(), id, req.Option)
	writeJSON(w, http.StatusOK, answerResponse{
		Accepted: accepted,
		Views:    s.manager.Snapshot().Views(),
	})
}

type bookmarkResponse struct {
	QuestionID int  `json:"questionId"`
	Bookmarked bool `json:"bookmarked"`
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := s.questionID(w, r)
	if !ok {
		return
	}
	on := s.manager.ToggleBookmark(r.Context(), id)
	writeJSON(w, http.StatusOK, bookmarkResponse{QuestionID: id, Bookmarked: on})
}

type resetRequest struct {
	Scope string `json:"scope"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, err := progress.ParseResetScope(req.Scope)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Reset(r.Context(), scope); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newState(s.manager.Snapshot()))
}

type progressResponse struct {
	Topic  string                  `json:"topic"`
	Views  progress.Views          `json:"views"`
	Topics []progress.TopicSummary `json:"topics"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snap := s.manager.Snapshot()
	writeJSON(w, http.StatusOK, progressResponse{
		Topic:  snap.Topic,
		Views:  snap.Views(),
		Topics: s.manager.Summaries(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, s.manager.Snapshot(), s.manager.Summaries()); err != nil {
		slog.Error("progress export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz-progress.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type chatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "study assistant is not configured")
		return
	}
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reply, err := s.assistant.Ask(r.Context(), req.Question)
	if errors.Is(err, assistant.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("study assistant failed", "error", err)
		writeError(w, http.StatusBadGateway, "study assistant is unavailable")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// questionID parses the {id} path value and checks it names a loaded item.
func (s *Server) questionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "question id must be an integer")
		return 0, false
	}
	for _, item := range s.manager.Snapshot().Items {
		if item.ID == id {
			return id, true
		}
	}
	writeError(w, http.StatusNotFound, "question not found")
	return 0, false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
