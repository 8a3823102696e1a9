// Package stats derives per-viewer views and totals from the live collections.
package stats

import "omsz_portal/internal/models"

// Directory resolves record owners to users.
type Directory struct {
	byID   map[string]models.User
	byName map[string]string // full name -> id, only for unique names
}

func NewDirectory(users []models.User) Directory {
	d := Directory{byID: map[string]models.User{}, byName: map[string]string{}}
	dup := map[string]bool{}
	for _, u := range users {
		if u.ID != "" {
			d.byID[u.ID] = u
		}
		if _, seen := d.byName[u.FullName]; seen {
			dup[u.FullName] = true
		}
		d.byName[u.FullName] = u.ID
	}
	for name := range dup {
		delete(d.byName, name)
	}
	return d
}

// Name returns the current full name of the owner, or the name recorded
// on the record when the owner is unknown.
func (d Directory) Name(ownerID, recorded string) string {
	if u, ok := d.byID[ownerID]; ok {
		return u.FullName
	}
	return recorded
}

// key groups records of one owner together, linking legacy records that
// only carry a name to the single user currently holding that name.
func (d Directory) key(ownerID, recorded string) string {
	if ownerID != "" {
		return "id:" + ownerID
	}
	if id, ok := d.byName[recorded]; ok && id != "" {
		return "id:" + id
	}
	return "name:" + recorded
}

// Owns reports whether a record with the given owner fields belongs to viewer.
// Records without an owner id match on the exact full name.
func Owns(viewer models.User, ownerID, recorded string) bool {
	if ownerID != "" {
		return ownerID == viewer.ID
	}
	return recorded == viewer.FullName
}

// VisibleServices returns what viewer may see: everything for an admin,
// otherwise only the viewer's own shifts, in stored order. Each row keeps
// its position in the full collection.
func VisibleServices(viewer models.User, services []models.Service) []ServiceRow {
	out := []ServiceRow{}
	for i, s := range services {
		if viewer.IsAdmin() || Owns(viewer, s.UserID, s.ServiceName) {
			out = append(out, ServiceRow{Service: s, Index: i + 1})
		}
	}
	return out
}

// VisibleReports applies the rule of VisibleServices to reports.
func VisibleReports(viewer models.User, reports []models.Report) []models.Report {
	if viewer.IsAdmin() {
		return reports
	}
	out := []models.Report{}
	for _, r := range reports {
		if Owns(viewer, r.UserID, r.YourName) {
			out = append(out, r)
		}
	}
	return out
}
