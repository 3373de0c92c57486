package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	dErrors "bto/pkg/domain-errors"
)

// Project is a BTO housing project: a unit ledger per flat type, an officer
// roster with bounded slots, and an application window.
//
// Invariants:
//   - 0 <= AvailableUnitsByType(t) <= TotalUnitsByType(t) for every t
//   - officers contains no two users with the same NRIC
//   - len(officers) <= maxOfficerSlots
//   - 0 <= availableOfficerSlots <= maxOfficerSlots
//   - identity is the project ID alone
//
// Project is not safe for concurrent mutation. Stores serialise access per ID.
type Project struct {
	id           string
	name         string
	neighborhood string

	totalUnits     map[FlatType]int
	availableUnits map[FlatType]int

	applicationOpenDate  time.Time
	applicationCloseDate time.Time

	manager               User
	officers              []User
	maxOfficerSlots       int
	availableOfficerSlots int

	visible bool
}

// NewProject creates a visible project with every unit available and an empty roster.
// Negative unit counts are stored as zero.
func NewProject(
	id, name, neighborhood string,
	totalUnits map[FlatType]int,
	openDate, closeDate time.Time,
	manager User,
	officerSlots int,
) (*Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project id is required")
	}
	if !manager.IsManager() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "manager in charge must act as manager")
	}

	p := &Project{
		id:                   id,
		name:                 name,
		neighborhood:         neighborhood,
		totalUnits:           make(map[FlatType]int, len(totalUnits)),
		availableUnits:       make(map[FlatType]int, len(totalUnits)),
		applicationOpenDate:  openDate,
		applicationCloseDate: closeDate,
		manager:              manager,
		visible:              true,
	}
	for t, n := range totalUnits {
		n = max(n, 0)
		p.totalUnits[t] = n
		p.availableUnits[t] = n
	}
	p.SetOfficerSlots(officerSlots)
	return p, nil
}

func (p *Project) ID() string           { return p.id }
func (p *Project) Name() string         { return p.name }
func (p *Project) Neighborhood() string { return p.neighborhood }
func (p *Project) Manager() User        { return p.manager }

func (p *Project) SetName(name string)                 { p.name = name }
func (p *Project) SetNeighborhood(neighborhood string) { p.neighborhood = neighborhood }

// Key is the value stores use to index projects.
func (p *Project) Key() string { return p.id }

// Equal reports whether both projects have the same ID. Other fields are ignored.
func (p *Project) Equal(other *Project) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.id == other.id
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	c := *p
	c.totalUnits = maps.Clone(p.totalUnits)
	c.availableUnits = maps.Clone(p.availableUnits)
	c.officers = slices.Clone(p.officers)
	return &c
}

// ProjectSnapshot is the plain-data form of a Project used for persistence and transport.
type ProjectSnapshot struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	Neighborhood          string           `json:"neighborhood"`
	TotalUnits            map[FlatType]int `json:"total_units"`
	AvailableUnits        map[FlatType]int `json:"available_units"`
	ApplicationOpenDate   time.Time        `json:"application_open_date"`
	ApplicationCloseDate  time.Time        `json:"application_close_date"`
	Manager               User             `json:"manager"`
	Officers              []User           `json:"officers"`
	MaxOfficerSlots       int              `json:"max_officer_slots"`
	AvailableOfficerSlots int              `json:"available_officer_slots"`
	Visible               bool             `json:"visible"`
}

// Snapshot copies the project's state out.
func (p *Project) Snapshot() ProjectSnapshot {
	officers := slices.Clone(p.officers)
	if officers == nil {
		officers = []User{}
	}
	return ProjectSnapshot{
		ID:                    p.id,
		Name:                  p.name,
		Neighborhood:          p.neighborhood,
		TotalUnits:            maps.Clone(p.totalUnits),
		AvailableUnits:        maps.Clone(p.availableUnits),
		ApplicationOpenDate:   p.applicationOpenDate,
		ApplicationCloseDate:  p.applicationCloseDate,
		Manager:               p.manager,
		Officers:              officers,
		MaxOfficerSlots:       p.maxOfficerSlots,
		AvailableOfficerSlots: p.availableOfficerSlots,
		Visible:               p.visible,
	}
}

// RestoreProject rebuilds a project from persisted state. Unit and slot counts
// are clamped back into range rather than rejected.
func RestoreProject(s ProjectSnapshot) (*Project, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project id is required")
	}
	p := &Project{
		id:                   s.ID,
		name:                 s.Name,
		neighborhood:         s.Neighborhood,
		totalUnits:           make(map[FlatType]int, len(s.TotalUnits)),
		availableUnits:       make(map[FlatType]int, len(s.TotalUnits)),
		applicationOpenDate:  s.ApplicationOpenDate,
		applicationCloseDate: s.ApplicationCloseDate,
		manager:              s.Manager,
		visible:              s.Visible,
	}
	for t, n := range s.TotalUnits {
		n = max(n, 0)
		p.totalUnits[t] = n
		p.availableUnits[t] = min(max(s.AvailableUnits[t], 0), n)
	}
	for _, o := range s.Officers {
		if !slices.ContainsFunc(p.officers, o.SameIdentity) {
			p.officers = append(p.officers, o.As(RoleOfficer))
		}
	}
	p.maxOfficerSlots = max(s.MaxOfficerSlots, len(p.officers))
	p.availableOfficerSlots = min(max(s.AvailableOfficerSlots, 0), p.maxOfficerSlots)
	return p, nil
}

// UnitState is one line of a project state report.
type UnitState struct {
	FlatType  FlatType `json:"flat_type"`
	Label     string   `json:"label"`
	Available int      `json:"available"`
	Total     int      `json:"total"`
}

// ProjectState summarises what a project currently offers.
type ProjectState struct {
	ProjectID             string      `json:"project_id"`
	Units                 []UnitState `json:"units"`
	AvailableOfficerSlots int         `json:"available_officer_slots"`
	MaxOfficerSlots       int         `json:"max_officer_slots"`
	Visible               bool        `json:"visible"`
}

// State reports availability for every flat type with a positive total.
func (p *Project) State() ProjectState {
	units := make([]UnitState, 0, len(p.totalUnits))
	for _, t := range p.FlatTypes() {
		total := p.totalUnits[t]
		if total <= 0 {
			continue
		}
		units = append(units, UnitState{
			FlatType:  t,
			Label:     t.DisplayValue(),
			Available: p.availableUnits[t],
			Total:     total,
		})
	}
	return ProjectState{
		ProjectID:             p.id,
		Units:                 units,
		AvailableOfficerSlots: p.availableOfficerSlots,
		MaxOfficerSlots:       p.maxOfficerSlots,
		Visible:               p.visible,
	}
}

func (s ProjectState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %s\n", s.ProjectID)
	b.WriteString("Flat Types and Units:\n")
	for _, u := range s.Units {
		fmt.Fprintf(&b, "  %s: %d available out of %d total\n", u.Label, u.Available, u.Total)
	}
	fmt.Fprintf(&b, "Officer Slots: %d available out of %d\n", s.AvailableOfficerSlots, s.MaxOfficerSlots)
	fmt.Fprintf(&b, "Visible: %t\n", s.Visible)
	return b.String()
}
