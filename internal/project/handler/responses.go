package handler

import (
	"bto/internal/project/models"
	"bto/internal/project/store/availability"
)

// ProjectResponse is a project's full state plus its availability summary.
type ProjectResponse struct {
	models.ProjectSnapshot
	State models.ProjectState `json:"state"`
}

func FromProject(p *models.Project) ProjectResponse {
	return ProjectResponse{ProjectSnapshot: p.Snapshot(), State: p.State()}
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Count    int               `json:"count"`
}

func FromProjects(projects []*models.Project) ProjectListResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, FromProject(p))
	}
	return ProjectListResponse{Projects: out, Count: len(out)}
}

type EligibilityResponse struct {
	ProjectID string `json:"project_id"`
	Eligible  bool   `json:"eligible"`
}

type AvailabilityResponse struct {
	ProjectID string                                 `json:"project_id"`
	Units     map[models.FlatType]availability.Units `json:"units"`
}
