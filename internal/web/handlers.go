package web

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// trigger runs a job detached from the request so a dropped client does not
// abort the cycle, then answers with the job summary.
func (s *Server) trigger(job string, run func(context.Context) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		summary, err := run(context.WithoutCancel(r.Context()))
		if err != nil {
			s.logger.Error("Triggered job failed", zap.String("job", job), zap.Error(err))
			http.Error(w, job+" failed: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(summary))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
