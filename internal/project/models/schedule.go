package models

import "time"

func (p *Project) ApplicationOpenDate() time.Time  { return p.applicationOpenDate }
func (p *Project) ApplicationCloseDate() time.Time { return p.applicationCloseDate }

func (p *Project) SetApplicationOpenDate(t time.Time)  { p.applicationOpenDate = t }
func (p *Project) SetApplicationCloseDate(t time.Time) { p.applicationCloseDate = t }

func (p *Project) IsVisible() bool        { return p.visible }
func (p *Project) SetVisible(visible bool) { p.visible = visible }

// IsOpenAt reports whether the project is visible and now falls inside the
// application window, both ends inclusive. An inverted window is never open.
func (p *Project) IsOpenAt(now time.Time) bool {
	if !p.visible {
		return false
	}
	return !now.Before(p.applicationOpenDate) && !now.After(p.applicationCloseDate)
}

// IsOpenForApplication evaluates IsOpenAt against the wall clock.
func (p *Project) IsOpenForApplication() bool {
	return p.IsOpenAt(time.Now())
}
