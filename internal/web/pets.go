package web

import (
	"errors"
	"fmt"
	"net/http"

	"gsbot/internal/metrics"
	"gsbot/internal/pets"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) listPets(w http.ResponseWriter, r *http.Request) {
	snapshot := s.pets.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"pets":  snapshot,
		"count": len(snapshot),
	})
}

func (s *Server) createPet(w http.ResponseWriter, r *http.Request) {
	var record pets.Record
	if err := decode(r, &record); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	key, created, err := s.pets.Create(record)
	switch {
	case errors.Is(err, pets.ErrNoName):
		writeError(w, http.StatusBadRequest, "Pet name is required")
		return
	case errors.Is(err, pets.ErrDuplicate):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Pet %s already exists", record.Name))
		return
	case err != nil:
		s.logger.Error("add pet failed", zap.String("pet", record.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add pet")
		return
	}
	metrics.PetRecords.Set(float64(s.pets.Len()))
	s.notify(PetEvent{Action: PetAdded, Name: created.Name, Record: created})
	s.logger.Info("pet added", zap.String("pet", created.Name), zap.String("key", key))
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Pet %s added successfully", created.Name),
		"key":     key,
	})
}

func (s *Server) updatePet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, ok := s.pets.Get(key); !ok {
		writeError(w, http.StatusNotFound, "Pet not found")
		return
	}
	var patch pets.Patch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	updated, changes, err := s.pets.Update(key, patch)
	switch {
	case errors.Is(err, pets.ErrNotFound):
		writeError(w, http.StatusNotFound, "Pet not found")
		return
	case err != nil:
		s.logger.Error("update pet failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update pet")
		return
	}
	s.notify(PetEvent{Action: PetUpdated, Name: updated.Name, Record: updated, Changes: changes})
	s.logger.Info("pet updated", zap.String("pet", updated.Name), zap.Int("changes", len(changes)))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Pet %s updated successfully", updated.Name),
	})
}

func (s *Server) deletePet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	deleted, err := s.pets.Delete(key)
	switch {
	case errors.Is(err, pets.ErrNotFound):
		writeError(w, http.StatusNotFound, "Pet not found")
		return
	case err != nil:
		s.logger.Error("delete pet failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete pet")
		return
	}
	metrics.PetRecords.Set(float64(s.pets.Len()))
	s.notify(PetEvent{Action: PetDeleted, Name: deleted.Name, Record: deleted})
	s.logger.Info("pet deleted", zap.String("pet", deleted.Name), zap.String("key", key))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Pet %s deleted successfully", deleted.Name),
	})
}
