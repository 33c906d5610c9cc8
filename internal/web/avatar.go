package web

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const defaultAvatarSize = 64

// avatarUpstreams are tried in order; each gets the bounded client
// timeout so a slow upstream degrades to the next one instead of
// blocking the page.
var avatarUpstreams = []string{
	"https://crafatar.com/avatars/%s?size=%d&overlay",
	"https://mc-heads.net/avatar/%s/%d",
	"https://minotar.net/helm/%s/%d.png",
}

// avatarFallback renders an initials placeholder when every upstream fails.
const avatarFallback = "https://ui-avatars.com/api/?name=%s&background=4AEDD9&color=1a1a2e&size=%d"

// handleAvatar proxies player head avatars so the dashboard avoids CORS
// issues with the upstream services.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	size := defaultAvatarSize
	if raw := vars["size"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 512 {
			size = n
		}
	}

	for _, upstream := range avatarUpstreams {
		target := fmt.Sprintf(upstream, url.PathEscape(name), size)
		if s.proxyAvatar(w, target) {
			return
		}
	}

	log.Debug().Str("player", name).Msg("All avatar upstreams failed, using placeholder")
	http.Redirect(w, r, fmt.Sprintf(avatarFallback, url.QueryEscape(name), size), http.StatusFound)
}

// proxyAvatar streams one upstream response; returns false so the caller
// can try the next upstream on any failure.
func (s *Server) proxyAvatar(w http.ResponseWriter, target string) bool {
	resp, err := s.avatarClient.Get(target)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Debug().Err(err).Msg("Avatar stream interrupted")
	}
	return true
}
