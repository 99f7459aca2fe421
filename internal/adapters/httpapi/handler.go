// Package httpapi exposes the workspace and the worker boundary over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"helixcanvas/internal/core"
	"helixcanvas/internal/worker"
	"helixcanvas/pkg/domain"
)

const (
	prefix = "/api/v1"
	// maxBody bounds request bodies; sequence files are the largest payloads.
	maxBody = 64 << 20
)

// Handler routes /api/v1 requests to the workspace service.
type Handler struct {
	Service *core.Service
	// Worker serves /api/v1/worker/{method}. Nil runs calls inline.
	Worker worker.Doer
}

// NewHandler constructs a handler for svc. Worker calls go through d, or run
// inline when d is nil.
func NewHandler(svc *core.Service, d worker.Doer) *Handler {
	return &Handler{Service: svc, Worker: d}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "workspace not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(path, prefix+"/") {
		http.NotFound(w, r)
		return
	}
	segments := strings.Split(strings.TrimPrefix(path, prefix+"/"), "/")
	switch segments[0] {
	case "worker":
		h.handleWorker(w, r, segments[1:])
	case "sequences":
		h.handleSequences(w, r, segments[1:])
	case "alignments":
		h.handleAlignments(w, r, segments[1:])
	case "imports":
		h.handleImports(w, r, segments[1:])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleWorker(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 1 || rest[0] == "" {
		writeError(w, http.StatusNotFound, "worker method required")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	params, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if len(strings.TrimSpace(string(params))) == 0 {
		params = []byte("{}")
	}
	d := h.Worker
	if d == nil {
		d = worker.Inline{}
	}
	resp, err := d.Do(r.Context(), worker.Request{Method: rest[0], Params: params})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	status := http.StatusOK
	if resp.Error != nil {
		status = remoteStatus(resp.Error)
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleSequences(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"sequences": h.Service.ListSequences()})
		case http.MethodPost:
			var body struct {
				Sequences []domain.SequenceRecord `json:"sequences"`
			}
			if !decode(w, r, &body) {
				return
			}
			out, err := h.Service.AddSequences(r.Context(), body.Sequences)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"sequences": out})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	id := rest[0]
	if len(rest) == 1 {
		switch r.Method {
		case http.MethodGet:
			seq, ok := h.Service.GetSequence(id)
			if !ok {
				writeError(w, http.StatusNotFound, "sequence not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"sequence": seq})
		case http.MethodPut:
			var patch core.SequencePatch
			if !decode(w, r, &patch) {
				return
			}
			out, err := h.Service.UpdateSequence(r.Context(), id, patch)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"sequence": out})
		case http.MethodDelete:
			if err := h.Service.RemoveSequence(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch rest[1] {
	case "annotations":
		h.handleAnnotations(w, r, id, rest[2:])
	case "undo", "redo":
		if len(rest) != 2 || r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		travel := h.Service.UndoAnnotations
		if rest[1] == "redo" {
			travel = h.Service.RedoAnnotations
		}
		annotations, changed, err := travel(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"annotations": annotations, "changed": changed})
	case "features":
		if len(rest) != 2 || r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		content, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "read body")
			return
		}
		features, err := h.Service.ImportFeaturesGFF(r.Context(), id, string(content))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"features": features})
	case "export":
		h.handleExport(w, r, id)
	case "search":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		regex, _ := strconv.ParseBool(r.URL.Query().Get("regex"))
		matches, err := h.Service.Search(r.Context(), id, r.URL.Query().Get("q"), regex)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
	default:
		writeError(w, http.StatusNotFound, "sequence endpoint not found")
	}
}

func (h *Handler) handleAnnotations(w http.ResponseWriter, r *http.Request, sequenceID string, rest []string) {
	var (
		out []domain.Annotation
		err error
	)
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
			content, rerr := io.ReadAll(io.LimitReader(r.Body, maxBody))
			if rerr != nil {
				writeError(w, http.StatusBadRequest, "read body")
				return
			}
			out, err = h.Service.ImportAnnotationsCSV(r.Context(), sequenceID, string(content))
			break
		}
		var body struct {
			Annotations []domain.Annotation `json:"annotations"`
		}
		if !decode(w, r, &body) {
			return
		}
		out, err = h.Service.AddAnnotations(r.Context(), sequenceID, body.Annotations)
		if err == nil {
			writeJSON(w, http.StatusCreated, map[string]any{"annotations": out})
			return
		}
	case len(rest) == 1 && r.Method == http.MethodPut:
		var ann domain.Annotation
		if !decode(w, r, &ann) {
			return
		}
		ann.ID = rest[0]
		out, err = h.Service.UpdateAnnotation(r.Context(), sequenceID, ann)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		out, err = h.Service.RemoveAnnotation(r.Context(), sequenceID, rest[0])
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"annotations": out})
}

func (h *Handler) handleAlignments(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"alignments": h.Service.ListAlignments()})
		return
	}
	id := rest[0]
	if len(rest) == 1 {
		switch r.Method {
		case http.MethodGet:
			aln, ok := h.Service.GetAlignment(id)
			if !ok {
				writeError(w, http.StatusNotFound, "alignment not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"alignment": aln})
		case http.MethodDelete:
			if err := h.Service.RemoveAlignment(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}
	switch rest[1] {
	case "mutate":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var body struct {
			SequenceID string `json:"sequence_id"`
			Column     int    `json:"column"`
			Residue    string `json:"residue"`
		}
		if !decode(w, r, &body) {
			return
		}
		if len(body.Residue) != 1 {
			writeError(w, http.StatusBadRequest, "residue must be a single character")
			return
		}
		out, err := h.Service.MutateAlignmentResidue(r.Context(), id, body.SequenceID, body.Column, strings.ToUpper(body.Residue)[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"alignment": out})
	case "export":
		h.handleExport(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "alignment endpoint not found")
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	text, err := h.Service.Export(r.Context(), id, r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (h *Handler) handleImports(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 0 {
		writeError(w, http.StatusNotFound, "import endpoint not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		archive := h.Service.Archive()
		if archive == nil {
			writeError(w, http.StatusNotFound, "import archive not configured")
			return
		}
		infos, err := archive.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"imports": infos})
	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
			Text string `json:"text"`
		}
		if !decode(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		out, err := h.Service.ImportFile(r.Context(), body.Name, body.Text)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

func remoteStatus(e *worker.RemoteError) int {
	switch e.Code {
	case worker.CodeUnknownMethod:
		return http.StatusNotFound
	case worker.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	var (
		violation   domain.RuleViolationError
		unsupported domain.UnsupportedFormatError
		export      core.UnsupportedExportError
		remote      *worker.RemoteError
	)
	switch {
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &violation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"violations": violation.Result.Violations,
		})
	case errors.As(err, &unsupported), errors.As(err, &export):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &remote):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
