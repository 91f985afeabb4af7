package handler

import (
	"net/http"

	"go-driveway/internal/event"
	"go-driveway/internal/model"
)

// PageHandler answers SPA page loads. Every load counts as an application
// start for the visitor and triggers a background token check.
type PageHandler struct {
	bus    event.Bus
	public model.PublicConfig
}

func NewPageHandler(bus event.Bus, public model.PublicConfig) *PageHandler {
	return &PageHandler{bus: bus, public: public}
}

type pageView struct {
	Page    string             `json:"page"`
	Session any                `json:"session"`
	Config  model.PublicConfig `json:"config"`
}

func (h *PageHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := currentSession(w, r)
		if !ok {
			return
		}

		h.bus.Publish(event.New(event.TypeAppLoaded, s.ID(), map[string]string{"page": name}))
		writeSuccess(w, http.StatusOK, pageView{Page: name, Session: s.Snapshot(), Config: h.public})
	}
}

func (h *PageHandler) Config(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.public)
}
