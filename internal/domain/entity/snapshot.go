package entity

import "time"

// Snapshot is a read-only copy of every record the views are rendered from.
// Referrals are ordered most recent first.
type Snapshot struct {
	Dentists  []Dentist
	Staff     []StaffMember
	Referrals []Referral
	LoadedAt  time.Time
}

// DentistByID looks up a dentist in the snapshot
func (s Snapshot) DentistByID(id int64) (Dentist, bool) {
	for _, d := range s.Dentists {
		if d.ID == id {
			return d, true
		}
	}
	return Dentist{}, false
}

// DentistNames indexes dentist names by id
func (s Snapshot) DentistNames() map[int64]string {
	names := make(map[int64]string, len(s.Dentists))
	for _, d := range s.Dentists {
		names[d.ID] = d.Name
	}
	return names
}
