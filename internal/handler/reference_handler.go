package handler

import (
	"net/http"

	"github.com/freeeve/squadplan/pkg/squad"
)

type hazardInfo struct {
	Approach      squad.HazardApproach `json:"approach"`
	Title         string               `json:"title"`
	SocialScience float64              `json:"social_science"`
	GroupShooting float64              `json:"group_shooting"`
	GroupLibrary  float64              `json:"group_library"`
	Obstacle      float64              `json:"obstacle"`
}

// ListTiers handles GET /api/v1/tiers
func ListTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, squad.AllTiers())
}

// ListHazards handles GET /api/v1/hazards
func ListHazards(w http.ResponseWriter, r *http.Request) {
	var out []hazardInfo
	for _, h := range squad.AllHazards() {
		m, err := squad.ModifiersFor(h)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out = append(out, hazardInfo{
			Approach:      h,
			Title:         h.Title(),
			SocialScience: m.SocialScience(),
			GroupShooting: m.GroupShooting(),
			GroupLibrary:  m.GroupLibrary(),
			Obstacle:      m.Obstacle(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
