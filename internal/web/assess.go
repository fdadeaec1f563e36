package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/bmi"
	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/service"
)

type assessPage struct {
	base
	Form       domain.AssessRequest
	Assessment *bmi.Assessment
	History    []domain.Measurement
}

func (p *Pages) history(r *http.Request) []domain.Measurement {
	id := middleware.AccountID(r.Context())
	if id == 0 {
		return nil
	}
	list, err := p.deps.Measurements.History(r.Context(), id, service.RecentMeasurements)
	if err != nil {
		p.deps.Log.Warn("failed to load measurement history", zap.Int64("account_id", id), zap.Error(err))
		return nil
	}
	return list
}

func (p *Pages) AssessPage(w http.ResponseWriter, r *http.Request) {
	data := assessPage{base: p.base(r, "Assessment Center", "assess"), History: p.history(r)}
	p.render(w, http.StatusOK, "assess", data)
}

func (p *Pages) AssessSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	data := assessPage{base: p.base(r, "Assessment Center", "assess")}
	data.Form = domain.AssessRequest{
		Weight: r.PostFormValue("weight"),
		Height: r.PostFormValue("height"),
		Gender: r.PostFormValue("gender"),
	}

	res, err := p.deps.Measurements.Assess(r.Context(), middleware.AccountID(r.Context()), data.Form)
	if err != nil {
		data.Error = p.userMessage(err, bmi.ErrMissingFields, bmi.ErrInvalidInput, bmi.ErrInvalidGender)
		data.History = p.history(r)
		p.render(w, http.StatusBadRequest, "assess", data)
		return
	}
	data.Assessment = &res.Assessment
	data.History = res.Recent
	p.render(w, http.StatusOK, "assess", data)
}
