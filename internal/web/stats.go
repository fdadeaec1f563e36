package web

import (
	"net/http"
	"strings"

	"github.com/yusufkecer/healthhub/internal/stats"
)

type statsPage struct {
	base
	Query  string
	Result *stats.Result
	Logs   []stats.LogEntry
}

func (p *Pages) StatsPage(w http.ResponseWriter, r *http.Request) {
	data := statsPage{base: p.base(r, "Health Stats", "stats")}
	data.Query = strings.TrimSpace(r.URL.Query().Get("country"))
	if data.Query == "" {
		p.render(w, http.StatusOK, "stats", data)
		return
	}

	res, err := p.deps.Stats.Search(r.Context(), data.Query)
	if res != nil {
		data.Logs = res.Logs
	}
	if err != nil {
		data.Error = stats.FailureMessage(data.Query)
		p.render(w, http.StatusOK, "stats", data)
		return
	}
	data.Result = res
	p.render(w, http.StatusOK, "stats", data)
}
