package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"minecraft-rewind/internal/model"
)

// defaultHistoryDepth bounds a player's history page.
const defaultHistoryDepth = 10

// playerPayload is the personal rewind page data.
type playerPayload struct {
	UUID           string                   `json:"uuid"`
	Name           string                   `json:"name"`
	ExtractionDate time.Time                `json:"extraction_date"`
	Stats          map[string]float64       `json:"stats"`
	TopItems       map[string]model.TopItem `json:"top_items"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeaderboards(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.LeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	boards, err := s.rankings.AllLeaderboards(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboards")
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rankings.GlobalStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load global stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.rankings.NamedPlayers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load players")
		return
	}
	if players == nil {
		players = []*model.Player{}
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	player := s.resolvePlayer(w, r)
	if player == nil {
		return
	}

	snapshots, err := s.snapshots.GetLatest(r.Context(), player.UUID, 1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load player stats")
		return
	}
	if len(snapshots) == 0 {
		writeError(w, http.StatusNotFound, "player has no snapshots")
		return
	}

	snap := snapshots[0]
	writeJSON(w, http.StatusOK, playerPayload{
		UUID:           player.UUID,
		Name:           player.DisplayName(),
		ExtractionDate: snap.ExtractionDate,
		Stats:          snap.Stats,
		TopItems:       snap.TopItems,
	})
}

func (s *Server) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	player := s.resolvePlayer(w, r)
	if player == nil {
		return
	}

	history, err := s.rankings.PlayerHistory(r.Context(), player.UUID, defaultHistoryDepth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []*model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handlePlayerRanks(w http.ResponseWriter, r *http.Request) {
	player := s.resolvePlayer(w, r)
	if player == nil {
		return
	}

	ranks, err := s.rankings.PlayerRanks(r.Context(), player.UUID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load ranks")
		return
	}
	writeJSON(w, http.StatusOK, ranks)
}

func (s *Server) handlePlayerCompare(w http.ResponseWriter, r *http.Request) {
	player := s.resolvePlayer(w, r)
	if player == nil {
		return
	}

	var comparison *model.Comparison
	var err error

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr != "" || toStr != "" {
		// Explicit date pair; both must be present and well-formed.
		from, fromErr := time.Parse("2006-01-02", fromStr)
		to, toErr := time.Parse("2006-01-02", toStr)
		if fromErr != nil || toErr != nil {
			writeError(w, http.StatusBadRequest, "from and to must both be YYYY-MM-DD dates")
			return
		}
		comparison, err = s.compare.Compare(r.Context(), player.UUID, from, to)
	} else {
		weeks := 2
		if raw := r.URL.Query().Get("weeks"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 1 {
				weeks = n
			}
		}
		comparison, err = s.compare.CompareLastWeeks(r.Context(), player.UUID, weeks)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compare snapshots")
		return
	}
	if comparison == nil {
		writeError(w, http.StatusNotFound, "no snapshots to compare for this period")
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

// resolvePlayer looks up the {name} route variable. It writes the 404
// itself and returns nil when the player is unknown.
func (s *Server) resolvePlayer(w http.ResponseWriter, r *http.Request) *model.Player {
	name := mux.Vars(r)["name"]

	player, err := s.rankings.PlayerByName(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up player")
		return nil
	}
	if player == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return nil
	}
	return player
}
