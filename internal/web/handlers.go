package web

import (
	"math"
	"net/http"
	"time"

	"gsbot/internal/pets"

	"go.uber.org/zap"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        s.cfg.Web.BotName,
		"timestamp":      s.now().UTC().Format(time.RFC3339),
		"uptime_seconds": s.uptimeSeconds(),
	})
}

func (s *Server) uptime(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "online",
		"uptime_seconds": s.uptimeSeconds(),
		"uptime_human":   now.Sub(s.start).Truncate(time.Second).String(),
		"start_time":     s.start.Format(time.RFC3339),
		"current_time":   now.Format(time.RFC3339),
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"bot_name":           s.cfg.Web.BotName,
		"version":            s.cfg.Web.Version,
		"status":             "running",
		"monitoring_channel": s.cfg.Channels.WFL,
		"reaction_emojis":    s.cfg.Reactions.WFLEmojis,
		"uptime_seconds":     s.uptimeSeconds(),
		"environment": map[string]any{
			"name":                     s.cfg.Web.Environment,
			"discord_token_configured": s.cfg.DiscordToken != "",
		},
		"system": s.system(),
	})
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	active := true
	if s.bot != nil {
		active = s.bot.Connected()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "pong",
		"timestamp":  s.now().UTC().Format(time.RFC3339),
		"bot_active": active,
	})
}

type calculateRequest struct {
	Age    *float64 `json:"age"`
	Weight *float64 `json:"weight"`
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Age == nil || req.Weight == nil || *req.Age == 0 || *req.Weight == 0 {
		writeError(w, http.StatusBadRequest, "Age and weight are required")
		return
	}
	age := *req.Age
	if age < pets.MinAge || age > pets.MaxAge || age != math.Trunc(age) {
		writeError(w, http.StatusBadRequest, "Age must be between 1 and 100")
		return
	}
	if *req.Weight <= 0 {
		writeError(w, http.StatusBadRequest, "Weight must be greater than 0")
		return
	}
	predictions, err := pets.Predict(int(age), *req.Weight)
	if err != nil {
		s.logger.Error("weight calculation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Calculation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_age":    int(age),
		"current_weight": *req.Weight,
		"predictions":    predictions,
	})
}

func (s *Server) calculateValues(w http.ResponseWriter, r *http.Request) {
	var in pets.ForecastInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, pets.Forecast(in))
}

type petListItem struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Demand     string `json:"demand"`
	Trend      string `json:"trend"`
	Tier       string `json:"tier"`
	ObtainedBy string `json:"obtainement"`
	ImageURL   string `json:"image_url"`
}

func (s *Server) petList(w http.ResponseWriter, r *http.Request) {
	entries := s.pets.Entries()
	out := make([]petListItem, 0, len(entries))
	for _, entry := range entries {
		rec := entry.Record
		out = append(out, petListItem{
			Name:       rec.Name,
			Value:      rec.Value,
			Demand:     rec.Demand,
			Trend:      rec.Trend,
			Tier:       rec.Tier,
			ObtainedBy: rec.ObtainedBy,
			ImageURL:   rec.ImageURL,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
