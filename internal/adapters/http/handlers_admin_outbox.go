package web

import (
	"net/http"

	"vacademy/internal/domain/outbox"
)

// handleListOutbox lists deferred email batches. ?status=pending lists the
// ones still retrying, anything else the ones out of attempts.
func (s *server) handleListOutbox(w http.ResponseWriter, r *http.Request) {
	if s.stores.OutboxStore == nil {
		writeJSON(w, http.StatusOK, []outbox.Entry{})
		return
	}
	limit := queryInt(r, "limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var (
		entries []outbox.Entry
		err     error
	)
	if r.URL.Query().Get("status") == outbox.StatusPending {
		entries, err = s.stores.OutboxStore.ListPending(r.Context(), limit)
	} else {
		entries, err = s.stores.OutboxStore.ListFailed(r.Context(), limit)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	if s.outbox == nil {
		s.fail(w, r, outbox.ErrNotFound)
		return
	}
	e, err := s.outbox.ProcessSingle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *server) handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	if s.outbox == nil {
		s.fail(w, r, outbox.ErrNotFound)
		return
	}
	e, err := s.outbox.AbandonEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
