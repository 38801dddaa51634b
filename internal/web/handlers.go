package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/app"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/export"
)

// Handlers contains HTTP route handlers for the web UI.
//
// Actions that change state follow one pattern: run the controller action,
// then answer with JSON (Accept: application/json), the page content block
// (HTMX) or a redirect back to the page. Failures the controller already
// turned into notices are shown on the page rather than as error responses.
type Handlers struct {
	ctrl     *app.Controller
	renderer *Renderer
	logger   *zap.Logger
}

// HandleIndex handles GET / and renders the whole page from the current state.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if len(h.ctrl.Snapshot().Categories) == 0 {
		// Failure is already queued as a notice; the page still renders.
		_, _ = h.ctrl.LoadCategories(r.Context())
	}
	h.renderIndex(w, r, http.StatusOK)
}

// HandleSearch handles GET /search?q=<term>&by=name|ingredient.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	mode, ok := app.ParseSearchMode(r.URL.Query().Get("by"))
	if !ok {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("by must be one of: name, ingredient"))
		return
	}

	err := h.ctrl.Search(r.Context(), r.URL.Query().Get("q"), mode)
	h.respond(w, r, err, nil)
}

// HandleBrowseCategory handles GET /categories/{name}. Reloading the page
// shows the category again rather than toggling it off.
func (h *Handlers) HandleBrowseCategory(w http.ResponseWriter, r *http.Request) {
	err := h.ctrl.BrowseCategory(r.Context(), chi.URLParam(r, "name"))
	h.respond(w, r, err, nil)
}

// HandleCategory handles POST /categories/{name}: select a category, or deselect
// it when it is already active.
func (h *Handlers) HandleCategory(w http.ResponseWriter, r *http.Request) {
	err := h.ctrl.SelectCategory(r.Context(), chi.URLParam(r, "name"))
	h.respond(w, r, err, nil)
}

// HandleRecipe handles GET /recipes/{id} and opens the detail view.
func (h *Handlers) HandleRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ctrl.OpenRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respond(w, r, err, nil)
		return
	}
	h.respond(w, r, nil, rec)
}

// HandleRandom handles GET /random and opens a random recipe.
func (h *Handlers) HandleRandom(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ctrl.Random(r.Context())
	if err != nil {
		h.respond(w, r, err, nil)
		return
	}
	h.respond(w, r, nil, rec)
}

// HandleCloseRecipe handles POST /recipes/close.
func (h *Handlers) HandleCloseRecipe(w http.ResponseWriter, r *http.Request) {
	h.ctrl.CloseRecipe()
	h.respond(w, r, nil, map[string]bool{"closed": true})
}

// HandleSave handles POST /recipes/{id}/save.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	rec, added, err := h.ctrl.SaveRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respond(w, r, err, nil)
		return
	}
	h.respond(w, r, nil, map[string]any{"id": rec.ID, "name": rec.Name, "added": added})
}

// HandleRemove handles DELETE /cookbook/{id} (and the POST form fallback).
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := h.ctrl.RemoveRecipe(r.Context(), id)
	if err != nil {
		h.respond(w, r, err, nil)
		return
	}
	h.respond(w, r, nil, map[string]any{"id": id, "removed": removed})
}

// HandleClear handles POST /cookbook/clear. The form must carry confirm=true.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	n, err := h.ctrl.ClearCookbook(r.Context(), r.FormValue("confirm") == "true")
	if errors.Is(err, errors.ErrConfirmationRequired) {
		h.renderer.renderError(w, r, err)
		return
	}
	if err != nil {
		h.respond(w, r, err, nil)
		return
	}
	h.respond(w, r, nil, map[string]int{"removed": n})
}

// HandleExport handles GET /cookbook/export?format=text|json|xlsx and sends
// the cookbook as a download attachment.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := export.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("format must be one of: text, json, xlsx"))
		return
	}

	dl, err := h.ctrl.ExportDownload(format)
	if err != nil {
		if errors.Is(err, errors.ErrEmptyCookbook) && !wantsJSON(r) {
			// The warning notice is shown on the page.
			h.respond(w, r, nil, nil)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Body)
}

// HandleToggleSidebar handles POST /sidebar/toggle.
func (h *Handlers) HandleToggleSidebar(w http.ResponseWriter, r *http.Request) {
	open := h.ctrl.ToggleSidebar()
	h.respond(w, r, nil, map[string]bool{"sidebar_open": open})
}

// HandleState handles GET /api/state and returns the state snapshot as JSON.
// Pending notices are included but not consumed.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// respond answers a state-changing request. JSON clients get result (or the
// error); browsers get the refreshed page content or a redirect to it.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, err error, result any) {
	if wantsJSON(r) {
		if err != nil {
			// Notices are for the page; JSON callers get the error itself.
			h.ctrl.TakeNotices()
			h.renderer.renderError(w, r, err)
			return
		}
		if result == nil {
			result = h.ctrl.Present()
		}
		renderJSON(w, http.StatusOK, result)
		return
	}

	if isHTMX(r) {
		h.renderIndex(w, r, http.StatusOK)
		return
	}

	if r.Method == http.MethodGet {
		h.renderIndex(w, r, http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) renderIndex(w http.ResponseWriter, r *http.Request, status int) {
	state := h.ctrl.Present()
	title := "Larder"
	if state.Title != "" {
		title = state.Title + " · Larder"
	}
	h.renderer.renderPageStatus(w, r, status, "index", IndexPageData{
		PageData: PageData{Title: title, Version: h.renderer.version},
		State:    state,
	})
}
